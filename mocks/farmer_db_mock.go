package mocks

import (
	"context"
	"reflect"
	"sync"

	"github.com/Kotlang/fasalneetiGo/db"
	"github.com/Kotlang/fasalneetiGo/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FarmerDbMock is an in-memory farmers collection. Setting Err makes every operation fail with it.
// InsertErr is returned by Insert after the document was stored, like a lost acknowledgement.
type FarmerDbMock struct {
	mu        sync.Mutex
	order     []primitive.ObjectID
	farmers   map[primitive.ObjectID]models.FarmerModel
	Err       error
	InsertErr error
	Closed    bool
}

func NewFarmerDbMock() *FarmerDbMock {
	return &FarmerDbMock{farmers: map[primitive.ObjectID]models.FarmerModel{}}
}

func (m *FarmerDbMock) Farmer() db.FarmerRepositoryInterface {
	return &farmerRepositoryMock{m}
}

func (m *FarmerDbMock) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

func (m *FarmerDbMock) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Get returns a copy of the stored document, for assertions.
func (m *FarmerDbMock) Get(id string) (models.FarmerModel, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.FarmerModel{}, false
	}
	farmer, ok := m.farmers[oid]
	return farmer, ok
}

func (m *FarmerDbMock) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.farmers)
}

type farmerRepositoryMock struct {
	m *FarmerDbMock
}

func respond[T any](res T, err error) (chan T, chan error) {
	resultChan := make(chan T, 1)
	errorChan := make(chan error, 1)
	if err != nil {
		errorChan <- err
	} else {
		resultChan <- res
	}
	return resultChan, errorChan
}

func (r *farmerRepositoryMock) Insert(ctx context.Context, farmer *models.FarmerModel) (chan string, chan error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return respond("", r.m.Err)
	}
	if farmer.ClientRef != "" {
		for _, existing := range r.m.farmers {
			if existing.ClientRef == farmer.ClientRef {
				return respond("", status.Error(codes.AlreadyExists, "Farmer already registered"))
			}
		}
	}

	farmer.FarmerId = primitive.NewObjectID()
	stored := *farmer
	stored.Crops = append([]models.CropEntry(nil), farmer.Crops...)
	r.m.farmers[farmer.FarmerId] = stored
	r.m.order = append(r.m.order, farmer.FarmerId)
	if r.m.InsertErr != nil {
		return respond("", r.m.InsertErr)
	}
	return respond(farmer.FarmerId.Hex(), nil)
}

func (r *farmerRepositoryMock) FindByClientRef(ctx context.Context, clientRef string) (chan *models.FarmerModel, chan error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return respond[*models.FarmerModel](nil, r.m.Err)
	}

	for _, farmer := range r.all() {
		if farmer.ClientRef == clientRef {
			farmer.Crops = append([]models.CropEntry(nil), farmer.Crops...)
			return respond(&farmer, nil)
		}
	}
	return respond[*models.FarmerModel](nil, status.Error(codes.NotFound, "Farmer not found"))
}

func (r *farmerRepositoryMock) lookup(id string) (primitive.ObjectID, models.FarmerModel, bool, error) {
	oid, err := db.ParseId(id)
	if err != nil {
		return oid, models.FarmerModel{}, false, err
	}
	if r.m.Err != nil {
		return oid, models.FarmerModel{}, false, r.m.Err
	}
	farmer, ok := r.m.farmers[oid]
	return oid, farmer, ok, nil
}

func (r *farmerRepositoryMock) FindOneById(ctx context.Context, id string) (chan *models.FarmerModel, chan error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	_, farmer, ok, err := r.lookup(id)
	if err != nil {
		return respond[*models.FarmerModel](nil, err)
	}
	if !ok {
		return respond[*models.FarmerModel](nil, status.Error(codes.NotFound, "Farmer not found"))
	}
	farmer.Crops = append([]models.CropEntry(nil), farmer.Crops...)
	return respond(&farmer, nil)
}

func (r *farmerRepositoryMock) all() []models.FarmerModel {
	farmers := make([]models.FarmerModel, 0, len(r.m.order))
	for _, oid := range r.m.order {
		if farmer, ok := r.m.farmers[oid]; ok {
			farmers = append(farmers, farmer)
		}
	}
	return farmers
}

func (r *farmerRepositoryMock) FindByEmail(ctx context.Context, email string) (chan []models.FarmerModel, chan error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return respond[[]models.FarmerModel](nil, r.m.Err)
	}

	matches := make([]models.FarmerModel, 0)
	for _, farmer := range r.all() {
		if farmer.Email == email {
			matches = append(matches, farmer)
		}
	}
	return respond(matches, nil)
}

func (r *farmerRepositoryMock) Find(ctx context.Context, skip, limit int64) (chan []models.FarmerModel, chan error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return respond[[]models.FarmerModel](nil, r.m.Err)
	}

	farmers := r.all()
	if skip < 0 {
		skip = 0
	}
	if skip >= int64(len(farmers)) {
		return respond([]models.FarmerModel{}, nil)
	}
	farmers = farmers[skip:]
	if limit > 0 && limit < int64(len(farmers)) {
		farmers = farmers[:limit]
	}
	return respond(farmers, nil)
}

func (r *farmerRepositoryMock) CountDocuments(ctx context.Context) (chan int64, chan error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return respond(int64(0), r.m.Err)
	}
	return respond(int64(len(r.m.farmers)), nil)
}

// UpdateById understands the top-level fields FarmerService sets.
func (r *farmerRepositoryMock) UpdateById(ctx context.Context, id string, set bson.M) (chan int64, chan error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	oid, farmer, ok, err := r.lookup(id)
	if err != nil {
		return respond(int64(0), err)
	}
	if !ok {
		return respond(int64(0), nil)
	}

	before := farmer
	for field, value := range set {
		applyField(&farmer, field, value)
	}
	if reflect.DeepEqual(before, farmer) {
		return respond(int64(0), nil)
	}
	r.m.farmers[oid] = farmer
	return respond(int64(1), nil)
}

func applyField(farmer *models.FarmerModel, field string, value interface{}) {
	str, _ := value.(string)
	switch field {
	case "name":
		farmer.Name = str
	case "email":
		farmer.Email = str
	case "mobile":
		farmer.Mobile = str
	case "location":
		farmer.Location = str
	case "passwordHash":
		farmer.PasswordHash = str
	case "farmSize":
		farmer.FarmSize = str
	case "soilType":
		farmer.SoilType = str
	case "soilPH":
		if ph, ok := value.(float64); ok {
			farmer.SoilPH = &ph
		} else {
			farmer.SoilPH = nil
		}
	case "lastCrop":
		farmer.LastCrop = str
	case "irrigationType":
		farmer.IrrigationType = str
	case "fertilizerUsage":
		farmer.FertilizerUsage = str
	case "pesticidesUsed":
		farmer.PesticidesUsed = str
	case "farmingExperience":
		farmer.FarmingExperience = str
	}
}

func (r *farmerRepositoryMock) PushCrop(ctx context.Context, id string, entry models.CropEntry) (chan int64, chan error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	oid, farmer, ok, err := r.lookup(id)
	if err != nil {
		return respond(int64(0), err)
	}
	if !ok {
		return respond(int64(0), nil)
	}
	farmer.Crops = append(append([]models.CropEntry(nil), farmer.Crops...), entry)
	r.m.farmers[oid] = farmer
	return respond(int64(1), nil)
}

func (r *farmerRepositoryMock) DeleteById(ctx context.Context, id string) (chan int64, chan error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	oid, _, ok, err := r.lookup(id)
	if err != nil {
		return respond(int64(0), err)
	}
	if !ok {
		return respond(int64(0), nil)
	}
	delete(r.m.farmers, oid)
	return respond(int64(1), nil)
}
