package services

import (
	"fmt"
	"log"
	"mime/multipart"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/putraaxzy/be-artemis/internal/apperr"
	"github.com/putraaxzy/be-artemis/internal/models"
	"github.com/putraaxzy/be-artemis/internal/repository"
	"github.com/putraaxzy/be-artemis/pkg/storage"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// RegisterRequest is a student self-registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Name     string `json:"name" validate:"required,max=255"`
	Phone    string `json:"phone" validate:"required,max=20"`
	Password string `json:"password" validate:"required,min=8"`
	Class    string `json:"class" validate:"required,max=10"`
	Major    string `json:"major" validate:"required,max=50"`

	Avatar *multipart.FileHeader `json:"-" validate:"-"`
}

// UpdateProfileRequest is a partial account update. Nil fields are unchanged.
type UpdateProfileRequest struct {
	Username *string
	Name     *string
	Phone    *string
	Password *string
	Avatar   *multipart.FileHeader
}

// FirstLoginRequest finalizes a pre-provisioned account on its first login.
type FirstLoginRequest struct {
	Username string `validate:"required,min=3,max=30"`
	Password string `validate:"required,min=8"`
	Phone    *string
	Avatar   *multipart.FileHeader
}

// RegisterOptions is the enrollment catalog served to the signup form.
type RegisterOptions struct {
	Classes       []string            `json:"classes"`
	MajorsByClass map[string][]string `json:"majors_by_class"`
}

// AuthResult is a successful login or registration.
type AuthResult struct {
	User          *models.User `json:"user"`
	Token         string       `json:"token"`
	EnrolledCount int          `json:"enrolled_count,omitempty"`
}

// AuthService handles accounts, credentials and JWT sessions.
type AuthService interface {
	RegisterOptions() (*RegisterOptions, error)
	Register(req *RegisterRequest) (*AuthResult, error)
	Login(username, password string) (*AuthResult, error)
	ValidateToken(token string) (*models.User, error)
	UpdateProfile(user *models.User, req *UpdateProfileRequest) (*models.User, error)
	CompleteFirstLogin(user *models.User, req *FirstLoginRequest) (*models.User, error)
}

type authClaims struct {
	UserID uint            `json:"uid"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	userRepo      repository.UserRepository
	majorRepo     repository.MajorRepository
	enrollment    EnrollmentService
	storage       *storage.Storage
	jwtSecret     []byte
	jwtExpiration time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	majorRepo repository.MajorRepository,
	enrollment EnrollmentService,
	store *storage.Storage,
	jwtSecret string,
	jwtExpiration time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		majorRepo:     majorRepo,
		enrollment:    enrollment,
		storage:       store,
		jwtSecret:     []byte(jwtSecret),
		jwtExpiration: jwtExpiration,
	}
}

func (s *authService) RegisterOptions() (*RegisterOptions, error) {
	majors, err := s.majorRepo.List()
	if err != nil {
		return nil, errors.Wrap(err, "list majors")
	}

	options := &RegisterOptions{MajorsByClass: make(map[string][]string)}
	for _, m := range majors {
		if _, seen := options.MajorsByClass[m.Class]; !seen {
			options.Classes = append(options.Classes, m.Class)
		}
		options.MajorsByClass[m.Class] = append(options.MajorsByClass[m.Class], m.Name)
	}
	return options, nil
}

func (s *authService) Register(req *RegisterRequest) (*AuthResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Validation(validationMessage(err))
	}
	if !usernamePattern.MatchString(req.Username) {
		return nil, apperr.Validation("username may only contain letters, digits and underscores")
	}

	valid, err := s.majorRepo.Exists(req.Class, req.Major)
	if err != nil {
		return nil, errors.Wrap(err, "check major catalog")
	}
	if !valid {
		return nil, apperr.Validation(fmt.Sprintf("major %s is not offered for class %s", req.Major, req.Class))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user := &models.User{
		Username: req.Username,
		Name:     req.Name,
		Phone:    req.Phone,
		Password: string(hash),
		Role:     models.RoleStudent,
		Class:    req.Class,
		Major:    req.Major,
	}

	if req.Avatar != nil {
		path, err := s.storage.SaveAvatar(req.Avatar)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		user.Avatar = path
	}

	if err := s.userRepo.Create(user); err != nil {
		s.storage.Delete(user.Avatar)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("username or phone is already registered")
		}
		return nil, errors.Wrap(err, "create user")
	}

	// Backfill assignments for class-targeted tasks that already exist.
	// Partial failures never block the registration.
	enrolled, err := s.enrollment.EnrollStudent(user)
	if err != nil {
		log.Printf("auth: auto-enrollment for user %d was incomplete: %v", user.ID, err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: token, EnrolledCount: enrolled}, nil
}

func (s *authService) Login(username, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("invalid username or password")
		}
		return nil, errors.Wrap(err, "load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("invalid username or password")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *authService) ValidateToken(tokenStr string) (*models.User, error) {
	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorized("invalid or expired token")
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("account no longer exists")
	}
	return user, nil
}

func (s *authService) UpdateProfile(user *models.User, req *UpdateProfileRequest) (*models.User, error) {
	if req.Username != nil && *req.Username != user.Username {
		if !user.CanChangeUsername() {
			return nil, apperr.Conflict(fmt.Sprintf(
				"username can be changed again in %d days", user.DaysUntilUsernameChange()))
		}
		if len(*req.Username) < 3 || len(*req.Username) > 30 || !usernamePattern.MatchString(*req.Username) {
			return nil, apperr.Validation("username must be 3-30 characters of letters, digits and underscores")
		}
		now := time.Now()
		user.Username = *req.Username
		user.UsernameChangedAt = &now
	}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			return nil, apperr.Validation("password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Wrap(err, "hash password")
		}
		user.Password = string(hash)
	}

	oldAvatar := ""
	if req.Avatar != nil {
		path, err := s.storage.SaveAvatar(req.Avatar)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		oldAvatar = user.Avatar
		user.Avatar = path
	}

	if err := s.userRepo.Update(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("username or phone is already taken")
		}
		return nil, errors.Wrap(err, "update user")
	}
	if oldAvatar != "" {
		if err := s.storage.Delete(oldAvatar); err != nil {
			log.Printf("auth: failed to delete old avatar %s: %v", oldAvatar, err)
		}
	}
	return user, nil
}

func (s *authService) CompleteFirstLogin(user *models.User, req *FirstLoginRequest) (*models.User, error) {
	if !user.IsFirstLogin {
		return nil, apperr.Conflict("account setup is already completed")
	}
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Validation(validationMessage(err))
	}
	if !usernamePattern.MatchString(req.Username) {
		return nil, apperr.Validation("username may only contain letters, digits and underscores")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user.Username = req.Username
	user.Password = string(hash)
	user.IsFirstLogin = false
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Avatar != nil {
		path, err := s.storage.SaveAvatar(req.Avatar)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		user.Avatar = path
	}

	if err := s.userRepo.Update(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("username or phone is already taken")
		}
		return nil, errors.Wrap(err, "update user")
	}
	return user, nil
}

func (s *authService) generateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &authClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}
