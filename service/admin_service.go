package service

import (
	"context"
	"crypto/subtle"
	"math"

	"github.com/Kotlang/fasalneetiGo/auth"
	"github.com/Kotlang/fasalneetiGo/db"
	"github.com/Kotlang/fasalneetiGo/logger"
	"github.com/Kotlang/fasalneetiGo/metrics"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type FarmerPage struct {
	Farmers []*FarmerProfile `json:"farmers"`
	Total   int64            `json:"total"`
}

type AdminService struct {
	db           db.FarmerDbInterface
	tokens       *auth.TokenIssuer
	username     string
	passwordHash string
}

func ProvideAdminService(farmerDb db.FarmerDbInterface, tokens *auth.TokenIssuer, username, passwordHash string) *AdminService {
	return &AdminService{
		db:           farmerDb,
		tokens:       tokens,
		username:     username,
		passwordHash: passwordHash,
	}
}

// Enabled reports whether an admin credential is configured. Without one no admin route is served.
func (s *AdminService) Enabled() bool {
	return s.passwordHash != ""
}

func (s *AdminService) Login(ctx context.Context, req *AdminLoginRequest) (*AuthResponse, error) {
	if !s.Enabled() {
		return nil, errAdminLoginDisabled
	}
	if req == nil {
		return nil, errInvalidCredentials
	}

	userOk := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.username)) == 1
	passOk := auth.CheckPassword(s.passwordHash, req.Password)
	if !userOk || !passOk {
		logger.Warn("Rejected admin login", zap.String("username", req.Username))
		return nil, errInvalidCredentials
	}

	token, err := s.tokens.GetToken(s.username, auth.UserTypeAdmin)
	if err != nil {
		logger.Error("Failed signing admin token", zap.Error(err))
		return nil, status.Error(codes.Internal, "Login failed")
	}
	return &AuthResponse{Jwt: token, UserType: auth.UserTypeAdmin}, nil
}

// ListAll returns every farmer when pageSize is zero, otherwise one page (pageNumber from 0).
func (s *AdminService) ListAll(ctx context.Context, pageNumber, pageSize int64) (page *FarmerPage, err error) {
	defer func() { metrics.ObserveOperation("listFarmers", err) }()

	if pageNumber < 0 || pageSize < 0 {
		return nil, asError(FieldErrors{"page": "Page and size must not be negative"})
	}
	if pageSize > 0 && pageNumber > math.MaxInt64/pageSize {
		return nil, asError(FieldErrors{"page": "Page is out of range"})
	}

	repo := s.db.Farmer()
	farmersChan, farmersErrChan := repo.Find(ctx, pageNumber*pageSize, pageSize)

	page = &FarmerPage{Farmers: make([]*FarmerProfile, 0)}
	select {
	case farmers := <-farmersChan:
		for i := range farmers {
			page.Farmers = append(page.Farmers, toProfile(&farmers[i]))
		}
	case err = <-farmersErrChan:
		logger.Error("Failed listing farmers", zap.Error(err))
		return nil, err
	}

	if pageSize == 0 {
		page.Total = int64(len(page.Farmers))
		return page, nil
	}

	countChan, countErrChan := repo.CountDocuments(ctx)
	select {
	case page.Total = <-countChan:
	case countErr := <-countErrChan:
		// the page itself is still valid.
		logger.Error("Failed counting farmers", zap.Error(countErr))
		page.Total = -1
	}
	return page, nil
}

func (s *AdminService) DeleteById(ctx context.Context, id string) (deleted int64, err error) {
	defer func() { metrics.ObserveOperation("deleteFarmer", err) }()

	deletedChan, errChan := s.db.Farmer().DeleteById(ctx, id)
	select {
	case deleted = <-deletedChan:
		logger.Info("Deleted farmer", zap.String("farmerId", id), zap.Int64("deleted", deleted))
		return deleted, nil
	case err = <-errChan:
		logger.Error("Failed deleting farmer", zap.String("farmerId", id), zap.Error(err))
		return 0, err
	}
}
