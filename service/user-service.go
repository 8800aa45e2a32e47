package service

import (
	"fmt"

	"github.com/codyde/girlsgotgame-sub002/app_error"
	"github.com/codyde/girlsgotgame-sub002/auth"
	"github.com/codyde/girlsgotgame-sub002/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

type UserService struct {
	userRepository *repository.UserRepository
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		userRepository: repository.NewUserRepository(db),
	}
}

func (s *UserService) GetUserById(id int) (*repository.User, error) {
	return s.userRepository.GetUserById(id)
}

func (s *UserService) SaveUser(user *repository.User) (*repository.User, error) {
	return s.userRepository.SaveUser(user)
}

func (s *UserService) GetUserFromAuthHeader(c *gin.Context) (*repository.User, error) {
	authHeader := c.Request.Header.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return nil, fmt.Errorf("authorization header is invalid")
	}
	return s.GetUserFromToken(authHeader[7:])
}

func (s *UserService) GetUserFromToken(tokenString string) (*repository.User, error) {
	token, err := auth.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims := &auth.Claims{}
	if token.Valid {
		claims.FromJWTClaims(token.Claims)
		if err := claims.Valid(); err != nil {
			return nil, err
		}
		return s.GetUserById(claims.UserId)
	}
	return nil, jwt.ErrInvalidKey
}

func (s *UserService) GetChildren(parentUserId int) ([]*repository.User, error) {
	return s.userRepository.GetChildren(parentUserId)
}

func (s *UserService) AddChild(parentUserId int, childUserId int, principal *repository.User) error {
	if !principal.IsAdmin() {
		return app_error.New(app_error.KindForbidden, "only admins can manage parent-child relations")
	}
	if parentUserId == childUserId {
		return app_error.New(app_error.KindValidation, "a user cannot be their own parent")
	}
	if _, err := s.userRepository.GetUserById(parentUserId); err != nil {
		return err
	}
	if _, err := s.userRepository.GetUserById(childUserId); err != nil {
		return err
	}
	return s.userRepository.AddParentChildRelation(parentUserId, childUserId)
}

func (s *UserService) RemoveChild(parentUserId int, childUserId int, principal *repository.User) error {
	if !principal.IsAdmin() {
		return app_error.New(app_error.KindForbidden, "only admins can manage parent-child relations")
	}
	return s.userRepository.RemoveParentChildRelation(parentUserId, childUserId)
}
