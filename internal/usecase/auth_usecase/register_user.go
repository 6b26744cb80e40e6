package auth

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"ecshop/internal/domain/model"
	"ecshop/internal/repository"
	"ecshop/internal/validator"

	"golang.org/x/crypto/bcrypt"
)

const passwordMinLen = 8

// 会員登録の入力
type RegisterUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Roles     []string
}

// 会員登録の出力
type RegisterUserOutput struct {
	User model.User
}

// bcryptハッシュ化
type BcryptPasswordHasher struct {
	cost int
}

var (
	// 入力が不正
	ErrNameRequired       = errors.New("first name and last name are required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrWeakPassword       = errors.New("password is too common")
	ErrUnknownRole        = errors.New("unknown role")

	// 競合
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// RegisterUserUsecaseは会員登録の処理。
type RegisterUserUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	idGen    IDGenerator
	clock    Clock
	// falseならrolesは無視してuserのみ
	allowRoleSelfAssign bool
}

// DI
func NewRegisterUserUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	idGen IDGenerator,
	clock Clock,
	allowRoleSelfAssign bool,
) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		userRepo:            userRepo,
		hasher:              hasher,
		idGen:               idGen,
		clock:               clock,
		allowRoleSelfAssign: allowRoleSelfAssign,
	}
}

// 会員登録実行
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (RegisterUserOutput, error) {
	var out RegisterUserOutput

	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	if firstName == "" || lastName == "" {
		return out, ErrNameRequired
	}

	// emailの形式チェック
	email := NormalizeEmail(in.Email)
	if !validator.IsEmailLike(email) {
		return out, ErrInvalidEmailFormat
	}

	// password の長さチェック
	if len(in.Password) < passwordMinLen {
		return out, ErrPasswordTooShort
	}

	// よくある弱いパスワードの拒否
	if isWeakPassword(in.Password) {
		return out, ErrWeakPassword
	}

	roles, err := u.resolveRoles(in.Roles)
	if err != nil {
		return out, err
	}

	// email重複チェック
	existing, err := u.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return out, ErrEmailAlreadyExists
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return out, err
	}

	// パスワードをハッシュ化
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return out, err
	}

	user := &model.User{
		ID:           u.idGen.NewID(),
		Email:        email,
		PasswordHash: hashed, // ハッシュを保存（平文は保存しない）
		FirstName:    firstName,
		LastName:     lastName,
		Roles:        roles,
		CreatedAt:    u.clock.Now(),
	}

	// DBへ保存（同時登録は一意制約で弾く）
	if err := u.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return out, ErrEmailAlreadyExists
		}
		return out, err
	}

	// 返すときは password を空にして漏洩防止
	safeUser := *user
	safeUser.PasswordHash = ""

	out.User = safeUser
	return out, nil
}

// 自己申告のroleは設定で許可されたときだけ
func (u *RegisterUserUsecase) resolveRoles(requested []string) ([]model.Role, error) {
	if !u.allowRoleSelfAssign || len(requested) == 0 {
		return []model.Role{model.RoleUser}, nil
	}

	roles := make([]model.Role, 0, len(requested))
	for _, r := range requested {
		r = strings.ToLower(strings.TrimSpace(r))
		if !slices.Contains(model.KnownRoles, r) {
			return nil, ErrUnknownRole
		}
		if !slices.Contains(roles, r) {
			roles = append(roles, r)
		}
	}
	return roles, nil
}

// 比較用に小文字化
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// パスワードのよくある弱いパスワード
func isWeakPassword(password string) bool {
	normalized := strings.ToLower(strings.TrimSpace(password))

	weak := map[string]struct{}{
		"password":     {},
		"password1":    {},
		"password123":  {},
		"123456789012": {},
		"1234567890":   {},
		"12345678":     {},
		"qwertyuiop":   {},
		"letmein1":     {},
		"admin123":     {},
		"iloveyou":     {},
	}

	_, ok := weak[normalized]
	return ok
}

// DI
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost}
}

// bcryptでハッシュ化
func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// bcryptハッシュと平文を比較
type BcryptPasswordVerifier struct{}

// DI
func NewBcryptPasswordVerifier() *BcryptPasswordVerifier {
	return &BcryptPasswordVerifier{}
}

// 平文(plain)をbcryptで比較
func (v *BcryptPasswordVerifier) Verify(plain string, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}
