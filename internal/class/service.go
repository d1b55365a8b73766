// Package class implements class creation, enrolment by join code and
// membership-gated rosters.
package class

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"courseconnect/internal/apperr"
	"courseconnect/internal/logging"
	"courseconnect/internal/user"

	"github.com/google/uuid"
)

// UserFinder resolves user references to display fields.
type UserFinder interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type Service struct {
	repo  Repository
	users UserFinder
	log   logging.Logger
}

func NewService(repo Repository, users UserFinder, log logging.Logger) *Service {
	return &Service{repo: repo, users: users, log: log.With("component", "class")}
}

func (s *Service) CreateClass(ctx context.Context, creator uuid.UUID, req *CreateRequest) (*Details, error) {
	name := strings.TrimSpace(req.Name)
	code := strings.TrimSpace(req.Code)
	instructor := strings.TrimSpace(req.Instructor)

	if name == "" || code == "" || instructor == "" {
		return nil, apperr.Validation("Name, code, and instructor are required")
	}

	if err := s.requireUser(ctx, creator); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetClassByCode(ctx, code); err == nil {
		return nil, apperr.Conflict("Class code already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("lookup class code: %w", err)
	}

	c := &Class{
		ID:          uuid.New(),
		Name:        name,
		Code:        code,
		Description: strings.TrimSpace(req.Description),
		Instructor:  instructor,
		CreatedBy:   creator,
	}

	if err := s.repo.CreateClass(ctx, c); err != nil {
		// a concurrent create won the unique index
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflict("Class code already exists")
		}
		return nil, fmt.Errorf("create class: %w", err)
	}

	s.log.Info(ctx, "class created", "class_id", c.ID, "code", c.Code, "created_by", creator)
	return s.details(ctx, c, nil)
}

func (s *Service) JoinClass(ctx context.Context, userID uuid.UUID, req *JoinRequest) (*Details, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, apperr.Validation("Class code is required")
	}

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	c, err := s.repo.GetClassByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("Class not found")
		}
		return nil, fmt.Errorf("lookup class code: %w", err)
	}

	added, err := s.repo.AddMember(ctx, c.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	if !added {
		return nil, apperr.Conflict("You are already enrolled in this class")
	}

	s.log.Info(ctx, "class joined", "class_id", c.ID, "user_id", userID)
	return s.details(ctx, c, nil)
}

// requireUser rejects a session whose user no longer exists, e.g. a token
// issued before an in-memory store was reset.
func (s *Service) requireUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.users.GetUserByID(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Unauthenticated("Unauthorized - User not found")
		}
		return fmt.Errorf("get user: %w", err)
	}
	return nil
}

// ListUserClasses returns every class the user belongs to, resolved.
func (s *Service) ListUserClasses(ctx context.Context, userID uuid.UUID) ([]Details, error) {
	classes, err := s.repo.ListClassesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}

	creators := make(map[uuid.UUID]user.Summary)
	out := make([]Details, 0, len(classes))
	for i := range classes {
		d, err := s.details(ctx, &classes[i], creators)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

// ListClassmates returns the members of classID other than requester.
// The requester must be a member.
func (s *Service) ListClassmates(ctx context.Context, classID string, requester uuid.UUID) ([]user.Summary, error) {
	id, err := uuid.Parse(classID)
	if err != nil {
		return nil, apperr.NotFound("Class not found")
	}

	if _, err := s.repo.GetClassByID(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("Class not found")
		}
		return nil, fmt.Errorf("get class: %w", err)
	}

	members, err := s.repo.ListMembers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	others := make([]user.Summary, 0, len(members))
	enrolled := false
	for _, m := range members {
		if m.ID == requester {
			enrolled = true
			continue
		}
		others = append(others, m)
	}
	if !enrolled {
		return nil, apperr.Forbidden("You are not enrolled in this class")
	}
	return others, nil
}

// details resolves the creator and members of c. creators memoizes creator
// lookups across calls and may be nil.
func (s *Service) details(ctx context.Context, c *Class, creators map[uuid.UUID]user.Summary) (*Details, error) {
	members, err := s.repo.ListMembers(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	creator, ok := creators[c.CreatedBy]
	if !ok {
		u, err := s.users.GetUserByID(ctx, c.CreatedBy)
		switch {
		case err == nil:
			creator = u.Summary()
		case errors.Is(err, apperr.ErrNotFound):
			creator = user.Summary{ID: c.CreatedBy}
		default:
			return nil, fmt.Errorf("get creator: %w", err)
		}
		if creators != nil {
			creators[c.CreatedBy] = creator
		}
	}

	return &Details{
		ID:          c.ID,
		Name:        c.Name,
		Code:        c.Code,
		Description: c.Description,
		Instructor:  c.Instructor,
		CreatedBy:   creator,
		Students:    members,
		CreatedAt:   c.CreatedAt,
	}, nil
}
