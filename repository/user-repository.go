package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/codyde/girlsgotgame-sub002/app_error"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleParent Role = "parent"
	RolePlayer Role = "player"
)

// User is a registered account supplied by the external identity provider.
type User struct {
	Id           int       `gorm:"primaryKey"`
	Email        string    `gorm:"not null;uniqueIndex"`
	DisplayName  string    `gorm:"not null"`
	Role         Role      `gorm:"not null;default:'player'"`
	JerseyNumber *int      `gorm:"null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ParentChildRelation grants the parent visibility and mutation rights over the
// child's roster entries and stats.
type ParentChildRelation struct {
	ParentUserId int `gorm:"primaryKey;autoIncrement:false"`
	ChildUserId  int `gorm:"primaryKey;autoIncrement:false"`
}

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) GetUserById(userId int) (*User, error) {
	var user User
	result := r.DB.First(&user, userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, app_error.New(app_error.KindNotFound, "user with id %d not found", userId)
		}
		return nil, fmt.Errorf("failed to fetch user %d: %w", userId, result.Error)
	}
	return &user, nil
}

func (r *UserRepository) GetUserByEmail(email string) (*User, error) {
	var user User
	result := r.DB.First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, app_error.New(app_error.KindNotFound, "user with email %s not found", email)
		}
		return nil, fmt.Errorf("failed to fetch user by email: %w", result.Error)
	}
	return &user, nil
}

func (r *UserRepository) SaveUser(user *User) (*User, error) {
	result := r.DB.Save(user)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save user: %w", result.Error)
	}
	return user, nil
}

func (r *UserRepository) HasParentChildRelation(parentUserId int, childUserId int) (bool, error) {
	var count int64
	result := r.DB.Model(&ParentChildRelation{}).
		Where("parent_user_id = ? AND child_user_id = ?", parentUserId, childUserId).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check parent-child relation: %w", result.Error)
	}
	return count > 0, nil
}

func (r *UserRepository) AddParentChildRelation(parentUserId int, childUserId int) error {
	relation := &ParentChildRelation{ParentUserId: parentUserId, ChildUserId: childUserId}
	result := r.DB.Save(relation)
	if result.Error != nil {
		return fmt.Errorf("failed to save parent-child relation: %w", result.Error)
	}
	return nil
}

func (r *UserRepository) RemoveParentChildRelation(parentUserId int, childUserId int) error {
	result := r.DB.Delete(&ParentChildRelation{ParentUserId: parentUserId, ChildUserId: childUserId})
	if result.Error != nil {
		return fmt.Errorf("failed to remove parent-child relation: %w", result.Error)
	}
	return nil
}

func (r *UserRepository) GetChildren(parentUserId int) ([]*User, error) {
	children := []*User{}
	err := r.DB.
		Joins("JOIN ggg.parent_child_relations ON parent_child_relations.child_user_id = users.id").
		Where("parent_child_relations.parent_user_id = ?", parentUserId).
		Find(&children).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch children for user %d: %w", parentUserId, err)
	}
	return children, nil
}
