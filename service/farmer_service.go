package service

import (
	"context"
	"strings"
	"time"

	"github.com/Kotlang/fasalneetiGo/auth"
	"github.com/Kotlang/fasalneetiGo/db"
	"github.com/Kotlang/fasalneetiGo/logger"
	"github.com/Kotlang/fasalneetiGo/metrics"
	"github.com/Kotlang/fasalneetiGo/models"
	"github.com/jinzhu/copier"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FarmerProfile is the outward view of a farmer; it never carries the password hash.
type FarmerProfile struct {
	Id                string             `json:"_id"`
	Name              string             `json:"name"`
	Email             string             `json:"email"`
	Mobile            string             `json:"mobile"`
	Location          string             `json:"location"`
	FarmSize          string             `json:"farmSize,omitempty"`
	SoilType          string             `json:"soilType,omitempty"`
	SoilPH            *float64           `json:"soilPH,omitempty"`
	LastCrop          string             `json:"lastCrop,omitempty"`
	IrrigationType    string             `json:"irrigationType,omitempty"`
	FertilizerUsage   string             `json:"fertilizerUsage,omitempty"`
	PesticidesUsed    string             `json:"pesticidesUsed,omitempty"`
	FarmingExperience string             `json:"farmingExperience,omitempty"`
	Crops             []models.CropEntry `json:"crops,omitempty"`
	CreatedOn         int64              `json:"createdOn,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Jwt      string         `json:"jwt"`
	UserType string         `json:"userType"`
	Farmer   *FarmerProfile `json:"farmer,omitempty"`
}

type Dashboard struct {
	Crops []models.CropEntry `json:"crops"`
}

func toProfile(farmer *models.FarmerModel) *FarmerProfile {
	profile := &FarmerProfile{}
	copier.Copy(profile, farmer)
	profile.Id = farmer.Id()
	return profile
}

type FarmerService struct {
	db     db.FarmerDbInterface
	tokens *auth.TokenIssuer
}

func ProvideFarmerService(farmerDb db.FarmerDbInterface, tokens *auth.TokenIssuer) *FarmerService {
	return &FarmerService{
		db:     farmerDb,
		tokens: tokens,
	}
}

// Register stores a validated profile and returns its generated id. Duplicate emails are allowed.
// A request whose clientRef was already stored returns the existing id instead of a second profile.
func (s *FarmerService) Register(ctx context.Context, req *FarmerRequest) (id string, err error) {
	defer func() { metrics.ObserveOperation("register", err) }()

	if err := asError(ValidateFarmerRequest(req)); err != nil {
		return "", err
	}

	clientRef := strings.TrimSpace(req.ClientRef)
	if clientRef != "" {
		existing, err := s.findByClientRef(ctx, clientRef)
		if err != nil {
			return "", err
		}
		if existing != "" {
			logger.Info("Registration replayed", zap.String("farmerId", existing))
			return existing, nil
		}
	}

	farmer := &models.FarmerModel{
		Name:              req.Name,
		Email:             req.Email,
		Mobile:            req.Mobile,
		Location:          req.Location,
		FarmSize:          req.FarmSize.String(),
		SoilType:          req.SoilType,
		LastCrop:          req.LastCrop,
		IrrigationType:    req.IrrigationType,
		FertilizerUsage:   req.FertilizerUsage,
		PesticidesUsed:    req.PesticidesUsed,
		FarmingExperience: req.FarmingExperience.String(),
		CreatedOn:         time.Now().Unix(),
		ClientRef:         clientRef,
	}
	if ph, ok := req.SoilPH.float(); ok {
		farmer.SoilPH = &ph
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			logger.Error("Failed hashing password", zap.Error(err))
			return "", status.Error(codes.Internal, "Registration failed")
		}
		farmer.PasswordHash = hash
	}

	idChan, errChan := s.db.Farmer().Insert(ctx, farmer)
	select {
	case id = <-idChan:
		logger.Info("Registered farmer", zap.String("farmerId", id))
		return id, nil
	case err = <-errChan:
		// a concurrent replay won the insert.
		if clientRef != "" && status.Code(err) == codes.AlreadyExists {
			if existing, lookupErr := s.findByClientRef(ctx, clientRef); lookupErr == nil && existing != "" {
				return existing, nil
			}
		}
		logger.Error("Failed registering farmer", zap.Error(err))
		return "", err
	}
}

// findByClientRef returns "" when no profile carries clientRef.
func (s *FarmerService) findByClientRef(ctx context.Context, clientRef string) (string, error) {
	farmerChan, errChan := s.db.Farmer().FindByClientRef(ctx, clientRef)
	select {
	case farmer := <-farmerChan:
		return farmer.Id(), nil
	case err := <-errChan:
		if status.Code(err) == codes.NotFound {
			return "", nil
		}
		logger.Error("Failed looking up client reference", zap.Error(err))
		return "", err
	}
}

// Login returns the profile whose email and password both match, with a farmer token.
func (s *FarmerService) Login(ctx context.Context, req *LoginRequest) (res *AuthResponse, err error) {
	defer func() { metrics.ObserveOperation("login", err) }()

	if req == nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, errInvalidCredentials
	}

	farmersChan, errChan := s.db.Farmer().FindByEmail(ctx, req.Email)
	var candidates []models.FarmerModel
	select {
	case candidates = <-farmersChan:
	case err = <-errChan:
		logger.Error("Failed fetching farmer for login", zap.Error(err))
		return nil, err
	}

	for i := range candidates {
		if !auth.CheckPassword(candidates[i].PasswordHash, req.Password) {
			continue
		}

		farmer := &candidates[i]
		token, err := s.tokens.GetToken(farmer.Id(), auth.UserTypeFarmer)
		if err != nil {
			logger.Error("Failed signing token", zap.Error(err))
			return nil, status.Error(codes.Internal, "Login failed")
		}
		return &AuthResponse{
			Jwt:      token,
			UserType: auth.UserTypeFarmer,
			Farmer:   toProfile(farmer),
		}, nil
	}
	return nil, errInvalidCredentials
}

func (s *FarmerService) GetProfile(ctx context.Context, id string) (profile *FarmerProfile, err error) {
	defer func() { metrics.ObserveOperation("getProfile", err) }()

	farmerChan, errChan := s.db.Farmer().FindOneById(ctx, id)
	select {
	case farmer := <-farmerChan:
		return toProfile(farmer), nil
	case err = <-errChan:
		return nil, err
	}
}

// UpdateProfile merges the fields present in patch. It returns the modified count, zero when the
// id does not exist or nothing changed.
func (s *FarmerService) UpdateProfile(ctx context.Context, id string, patch *FarmerPatch) (modified int64, err error) {
	defer func() { metrics.ObserveOperation("updateProfile", err) }()

	if _, err := db.ParseId(id); err != nil {
		return 0, err
	}
	if err := asError(ValidateFarmerPatch(patch)); err != nil {
		return 0, err
	}

	set, err := patchToSet(patch)
	if err != nil {
		return 0, err
	}
	if len(set) == 0 {
		return 0, nil
	}

	modifiedChan, errChan := s.db.Farmer().UpdateById(ctx, id, set)
	select {
	case modified = <-modifiedChan:
		logger.Info("Updated farmer", zap.String("farmerId", id), zap.Int64("modified", modified))
		return modified, nil
	case err = <-errChan:
		logger.Error("Failed updating farmer", zap.String("farmerId", id), zap.Error(err))
		return 0, err
	}
}

func patchToSet(patch *FarmerPatch) (bson.M, error) {
	set := bson.M{}
	if patch == nil {
		return set, nil
	}

	strs := map[string]*string{
		"name":            patch.Name,
		"email":           patch.Email,
		"mobile":          patch.Mobile,
		"location":        patch.Location,
		"soilType":        patch.SoilType,
		"lastCrop":        patch.LastCrop,
		"irrigationType":  patch.IrrigationType,
		"fertilizerUsage": patch.FertilizerUsage,
		"pesticidesUsed":  patch.PesticidesUsed,
	}
	for field, value := range strs {
		if value != nil {
			set[field] = *value
		}
	}
	if patch.FarmSize != nil {
		set["farmSize"] = patch.FarmSize.String()
	}
	if patch.FarmingExperience != nil {
		set["farmingExperience"] = patch.FarmingExperience.String()
	}
	if patch.SoilPH != nil {
		// an explicit empty value clears the reading.
		if ph, ok := patch.SoilPH.float(); ok {
			set["soilPH"] = ph
		} else {
			set["soilPH"] = nil
		}
	}
	if patch.Password != nil {
		hash, err := auth.HashPassword(*patch.Password)
		if err != nil {
			logger.Error("Failed hashing password", zap.Error(err))
			return nil, status.Error(codes.Internal, "Update failed")
		}
		set["passwordHash"] = hash
	}
	return set, nil
}

// AppendCrop pushes one entry onto the crop log. Entries are never rewritten or removed.
func (s *FarmerService) AppendCrop(ctx context.Context, id string, entry models.CropEntry) (modified int64, err error) {
	defer func() { metrics.ObserveOperation("appendCrop", err) }()

	if len(entry) == 0 {
		return 0, asError(FieldErrors{"crop": "Crop entry cannot be empty"})
	}

	modifiedChan, errChan := s.db.Farmer().PushCrop(ctx, id, entry)
	select {
	case modified = <-modifiedChan:
		return modified, nil
	case err = <-errChan:
		logger.Error("Failed saving crop", zap.String("farmerId", id), zap.Error(err))
		return 0, err
	}
}

// GetDashboard returns the crop log, empty for a profile without crops and NotFound for a
// missing profile.
func (s *FarmerService) GetDashboard(ctx context.Context, id string) (dashboard *Dashboard, err error) {
	defer func() { metrics.ObserveOperation("getDashboard", err) }()

	farmerChan, errChan := s.db.Farmer().FindOneById(ctx, id)
	select {
	case farmer := <-farmerChan:
		crops := farmer.Crops
		if crops == nil {
			crops = []models.CropEntry{}
		}
		return &Dashboard{Crops: crops}, nil
	case err = <-errChan:
		return nil, err
	}
}
