package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/utils"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID            int       `gorm:"primary_key" json:"id"`
	Username      string    `gorm:"size:100;not null;unique" json:"username"`
	Password      string    `gorm:"size:255;not null" json:"password,omitempty"`
	Role          UserRole  `gorm:"size:20;not null;default:admin" json:"role"`
	AssignedShops []string  `gorm:"serializer:json;type:text" json:"assigned_shops"`
	IsActive      *bool     `gorm:"not null" json:"is_active"`
	CreatedBy     int       `json:"created_by"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Email         string   `json:"email" binding:"required"`
	Password      string   `json:"password" binding:"required"`
	Role          UserRole `json:"role"`
	AssignedShops []string `json:"assigned_shops"`
}

type LoginInfo struct {
	Token         string   `json:"token"`
	UserId        int      `json:"user_id"`
	Username      string   `json:"username"`
	Role          UserRole `json:"role"`
	AssignedShops []string `json:"assigned_shops"`
}

/*
caches:
	User:$username
	Token:$token -> username
	Tokens:$username -> set of tokens
*/

func (user *User) PrepareGive() {
	user.Password = ""
}

func (user User) Active() bool {
	return user.IsActive == nil || *user.IsActive
}

// CanAccessClient reports whether the user may open the given shop.
func (user User) CanAccessClient(clientId string) bool {
	if user.Role == UserRoleSuperAdmin {
		return true
	}
	return utils.Contains(user.AssignedShops, clientId)
}

func (user User) RemoveInstanceRedis() error {
	return config.RemoveRedisKey("User:" + user.Username)
}

// GetUserByUsername reads through the User:$username cache.
func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err != nil {
		return nil, err
	}
	if exists {
		return &user, nil
	}
	if err := config.GetDB().WithContext(ctx).Where("username = ?", username).Take(&user).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := config.SetRedisObject("User:"+username, &user, utils.GetCacheLifespan()); err != nil {
		config.LogError(config.GetLogger(), "User", "GetUserByUsername", "cache user", username, err)
	}
	return &user, nil
}

func checkCredentials(ctx context.Context, username string, password string) (*User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	user, err := GetUserByUsername(ctx, username)
	if err != nil {
		return nil, errors.New("invalid username or password")
	}

	if err := utils.ComparePassword(user.Password, password); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, errors.New("invalid username or password")
		}
		return nil, err
	}
	if !user.Active() {
		return nil, errors.New("user is disabled")
	}
	return user, nil
}

// Login opens a redis backed session and returns its opaque token.
func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {
	user, err := checkCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	lifespan := time.Duration(config.GetSettings().Auth.TokenHourLifespan) * time.Hour
	if err := config.AddRedisSet("Tokens:"+user.Username, token); err != nil {
		return nil, err
	}
	if err := config.SetRedisValue("Token:"+token, user.Username, lifespan); err != nil {
		return nil, err
	}

	return &LoginInfo{
		Token:         token,
		UserId:        user.ID,
		Username:      user.Username,
		Role:          user.Role,
		AssignedShops: user.AssignedShops,
	}, nil
}

// IssueApiToken returns a signed bearer token for API clients.
func IssueApiToken(ctx context.Context, username string, password string) (*LoginInfo, error) {
	user, err := checkCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}
	token, err := utils.JwtGenerate(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &LoginInfo{
		Token:         token,
		UserId:        user.ID,
		Username:      user.Username,
		Role:          user.Role,
		AssignedShops: user.AssignedShops,
	}, nil
}

// destroy current session
func Logout(ctx context.Context) (bool, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return false, errors.New("token is required")
	}
	if err := config.RemoveRedisKey("Token:" + token); err != nil {
		return false, err
	}
	username, ok := utils.GetUsernameFromContext(ctx)
	if !ok || username == "" {
		return false, errors.New("user not found")
	}
	if err := config.RemoveRedisSetMember("Tokens:"+username, token); err != nil {
		return false, err
	}
	return true, nil
}

// CreateUser registers a shop user. Only super admins reach this.
func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, errors.New("email is required")
	}
	if !utils.IsValidEmail(email) {
		return nil, errors.New("invalid email address")
	}
	if len(input.Password) < utils.MinPasswordLength {
		return nil, utils.ErrPasswordTooShort
	}
	shops := utils.UniqueSlice(input.AssignedShops)
	if len(shops) == 0 {
		return nil, errors.New("assigned_shops must have at least 1 shop")
	}
	// anything but partner becomes admin
	role := UserRoleAdmin
	if input.Role == UserRolePartner {
		role = UserRolePartner
	}

	db := config.GetDB().WithContext(ctx)
	var count int64
	if err := db.Model(&Client{}).Where("id IN ?", shops).Count(&count).Error; err != nil {
		return nil, err
	}
	if count != int64(len(shops)) {
		return nil, errors.New("assigned_shops contains unknown clients")
	}
	if err := utils.ValidateUnique[User](ctx, "", "username", email, nil); err != nil {
		return nil, errors.New("email already exists")
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	creatorId, _ := utils.GetUserIdFromContext(ctx)
	active := true
	user := User{
		Username:      email,
		Password:      string(hashedPassword),
		Role:          role,
		AssignedShops: shops,
		IsActive:      &active,
		CreatedBy:     creatorId,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	user.PrepareGive()
	return &user, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {
	var result User
	if err := config.GetDB().WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	result.PrepareGive()
	return &result, nil
}

func GetAllUsers(ctx context.Context) ([]*User, error) {
	var results []*User
	if err := config.GetDB().WithContext(ctx).Order("username").Find(&results).Error; err != nil {
		return nil, err
	}
	for _, u := range results {
		u.PrepareGive()
	}
	return results, nil
}

// ResetUserPassword sets a new password and signs the user out everywhere.
func ResetUserPassword(ctx context.Context, id int, newPassword string) error {
	hashedPassword, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	var user User
	db := config.GetDB().WithContext(ctx)
	if err := db.First(&user, id).Error; err != nil {
		return utils.ErrorRecordNotFound
	}
	if err := db.Model(&user).UpdateColumn("password", string(hashedPassword)).Error; err != nil {
		return err
	}
	if err := user.RemoveInstanceRedis(); err != nil {
		return err
	}
	return user.DestroyAllSessions(ctx)
}

// SetUserActive enables or disables a user. Disabling drops all their sessions.
func SetUserActive(ctx context.Context, id int, isActive bool) (*User, error) {
	callerId, _ := utils.GetUserIdFromContext(ctx)
	if callerId == id && !isActive {
		return nil, errors.New("you cannot disable your own account")
	}
	var user User
	db := config.GetDB().WithContext(ctx)
	if err := db.First(&user, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := db.Model(&user).UpdateColumn("is_active", isActive).Error; err != nil {
		return nil, err
	}
	user.IsActive = &isActive
	if err := user.RemoveInstanceRedis(); err != nil {
		return nil, err
	}
	if !isActive {
		if err := user.DestroyAllSessions(ctx); err != nil {
			return nil, err
		}
	}
	user.PrepareGive()
	return &user, nil
}

// UpsertSuperAdmin creates the super admin or resets its password.
func UpsertSuperAdmin(ctx context.Context, email string, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !utils.IsValidEmail(email) {
		return nil, errors.New("invalid email address")
	}
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	db := config.GetDB().WithContext(ctx)
	active := true
	var user User
	err = db.Where("username = ?", email).Take(&user).Error
	if err == nil {
		if err := db.Model(&user).Updates(map[string]interface{}{
			"password":  string(hashedPassword),
			"role":      UserRoleSuperAdmin,
			"is_active": true,
		}).Error; err != nil {
			return nil, err
		}
		_ = user.RemoveInstanceRedis()
	} else {
		user = User{Username: email, Password: string(hashedPassword), Role: UserRoleSuperAdmin, IsActive: &active}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
	}
	user.PrepareGive()
	return &user, nil
}

func (user *User) DestroyAllSessions(ctx context.Context) error {
	allTokens, err := config.GetRedisSetMembers("Tokens:" + user.Username)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(allTokens)+1)
	for _, token := range allTokens {
		keys = append(keys, "Token:"+token)
	}
	keys = append(keys, "Tokens:"+user.Username)
	return config.RemoveRedisKey(keys...)
}
