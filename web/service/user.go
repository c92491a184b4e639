package service

import (
	"context"
	"fmt"

	"github.com/yamdb/yamdb/database"
	"github.com/yamdb/yamdb/database/model"
	"github.com/yamdb/yamdb/util/common"
	"github.com/yamdb/yamdb/util/validate"
	"github.com/yamdb/yamdb/web/access"
	"github.com/yamdb/yamdb/web/entity"

	"gorm.io/gorm"
)

type UserService struct{}

func findUser(db *gorm.DB, column, value string) (*model.User, error) {
	user := &model.User{}
	err := db.Where(column+" = ?", value).First(user).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, common.NotFound("user")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func takenBy(db *gorm.DB, column, value string, exceptID int) (bool, error) {
	var n int64
	err := db.Model(&model.User{}).Where(column+" = ? AND id <> ?", value, exceptID).Count(&n).Error
	return n > 0, err
}

// applyUserWrite validates the supplied fields and copies them onto u.
// Username and email are required when u is not stored yet.
func applyUserWrite(db *gorm.DB, u *model.User, in entity.UserWrite) error {
	v := common.NewValidationError()
	if err := validate.Struct(in, u.Id != 0); err != nil && !v.Merge(err) {
		return err
	}

	if in.Username != nil && !v.Has("username") {
		if taken, err := takenBy(db, "username", *in.Username, u.Id); err != nil {
			return fmt.Errorf("check username: %w", err)
		} else if taken {
			v.Add("username", "username.taken")
		}
	}
	if in.Email != nil && !v.Has("email") {
		if taken, err := takenBy(db, "email", *in.Email, u.Id); err != nil {
			return fmt.Errorf("check email: %w", err)
		} else if taken {
			v.Add("email", "email.taken")
		}
	}

	var role access.Role
	if in.Role != nil {
		r, ok := access.ParseRole(*in.Role)
		if !ok {
			v.Add("role", "role.invalid", map[string]any{"Role": *in.Role})
		}
		role = r
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if in.Role != nil {
		u.Role = string(role)
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	return nil
}

func saveUser(db *gorm.DB, u *model.User) error {
	if err := db.Save(u).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return common.Invalid("username", "username.taken")
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *UserService) List(ctx context.Context, actor *access.Actor, search string, p entity.PageRequest) ([]entity.User, int64, error) {
	if err := access.AdminOnly.Check(actor, access.Read); err != nil {
		return nil, 0, err
	}
	filtered := func() *gorm.DB {
		q := conn(ctx).Model(&model.User{})
		if search != "" {
			q = q.Where(`LOWER(username) LIKE ? ESCAPE '\'`, containsPattern(search))
		}
		return q
	}
	var count int64
	if err := filtered().Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	var users []model.User
	if err := paginate(filtered().Order("id"), p).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	out := make([]entity.User, 0, len(users))
	for i := range users {
		out = append(out, entity.NewUser(&users[i]))
	}
	return out, count, nil
}

func (s *UserService) Create(ctx context.Context, actor *access.Actor, in entity.UserWrite) (entity.User, error) {
	if err := access.AdminOnly.Check(actor, access.Write); err != nil {
		return entity.User{}, err
	}
	db := conn(ctx)
	user := &model.User{}
	if err := applyUserWrite(db, user, in); err != nil {
		return entity.User{}, err
	}
	if err := saveUser(db, user); err != nil {
		return entity.User{}, err
	}
	return entity.NewUser(user), nil
}

func (s *UserService) Get(ctx context.Context, actor *access.Actor, username string) (entity.User, error) {
	if err := access.AdminOnly.Check(actor, access.Read); err != nil {
		return entity.User{}, err
	}
	user, err := findUser(conn(ctx), "username", username)
	if err != nil {
		return entity.User{}, err
	}
	return entity.NewUser(user), nil
}

// Update applies a partial update to the account, role included.
func (s *UserService) Update(ctx context.Context, actor *access.Actor, username string, in entity.UserWrite) (entity.User, error) {
	if err := access.AdminOnly.Check(actor, access.Write); err != nil {
		return entity.User{}, err
	}
	db := conn(ctx)
	user, err := findUser(db, "username", username)
	if err != nil {
		return entity.User{}, err
	}
	if err := applyUserWrite(db, user, in); err != nil {
		return entity.User{}, err
	}
	if err := saveUser(db, user); err != nil {
		return entity.User{}, err
	}
	return entity.NewUser(user), nil
}

// Delete removes the account with its reviews, its comments and the
// comments left on its reviews.
func (s *UserService) Delete(ctx context.Context, actor *access.Actor, username string) error {
	if err := access.AdminOnly.Check(actor, access.Delete); err != nil {
		return err
	}
	return conn(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, "username", username)
		if err != nil {
			return err
		}
		err = tx.Where("author_id = ? OR review_id IN (SELECT id FROM reviews WHERE author_id = ?)", user.Id, user.Id).
			Delete(&model.Comment{}).Error
		if err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Where("author_id = ?", user.Id).Delete(&model.Review{}).Error; err != nil {
			return fmt.Errorf("delete reviews: %w", err)
		}
		if err := tx.Delete(&model.User{}, user.Id).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}

func (s *UserService) Me(ctx context.Context, actor *access.Actor) (entity.User, error) {
	if err := access.Authenticated.Check(actor, access.Read); err != nil {
		return entity.User{}, err
	}
	user, err := s.actorUser(ctx, actor)
	if err != nil {
		return entity.User{}, err
	}
	return entity.NewUser(user), nil
}

// UpdateMe edits the actor's own profile. A role in the input is dropped
// unless the actor is an admin.
func (s *UserService) UpdateMe(ctx context.Context, actor *access.Actor, in entity.UserWrite) (entity.User, error) {
	if err := access.Authenticated.Check(actor, access.Write); err != nil {
		return entity.User{}, err
	}
	if !actor.IsAdmin() {
		in.Role = nil
	}
	db := conn(ctx)
	user, err := s.actorUser(ctx, actor)
	if err != nil {
		return entity.User{}, err
	}
	if err := applyUserWrite(db, user, in); err != nil {
		return entity.User{}, err
	}
	if err := saveUser(db, user); err != nil {
		return entity.User{}, err
	}
	return entity.NewUser(user), nil
}

func (s *UserService) actorUser(ctx context.Context, actor *access.Actor) (*model.User, error) {
	user := &model.User{}
	if err := conn(ctx).First(user, actor.ID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, common.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
