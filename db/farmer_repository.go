package db

import (
	"context"
	"errors"

	"github.com/Kotlang/fasalneetiGo/logger"
	"github.com/Kotlang/fasalneetiGo/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type FarmerRepositoryInterface interface {
	Insert(ctx context.Context, farmer *models.FarmerModel) (chan string, chan error)
	FindOneById(ctx context.Context, id string) (chan *models.FarmerModel, chan error)
	FindByEmail(ctx context.Context, email string) (chan []models.FarmerModel, chan error)
	FindByClientRef(ctx context.Context, clientRef string) (chan *models.FarmerModel, chan error)
	Find(ctx context.Context, skip, limit int64) (chan []models.FarmerModel, chan error)
	CountDocuments(ctx context.Context) (chan int64, chan error)
	UpdateById(ctx context.Context, id string, set bson.M) (chan int64, chan error)
	PushCrop(ctx context.Context, id string, entry models.CropEntry) (chan int64, chan error)
	DeleteById(ctx context.Context, id string) (chan int64, chan error)
}

type CollectionFunc func(ctx context.Context) (*mongo.Collection, error)

// StaticCollection binds a repository to an already opened collection.
func StaticCollection(coll *mongo.Collection) CollectionFunc {
	return func(context.Context) (*mongo.Collection, error) {
		return coll, nil
	}
}

type FarmerRepository struct {
	collection CollectionFunc
}

func NewFarmerRepository(collection CollectionFunc) *FarmerRepository {
	return &FarmerRepository{collection: collection}
}

// ParseId converts a hex identifier; malformed input is InvalidArgument, never NotFound.
func ParseId(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, status.Error(codes.InvalidArgument, "Invalid farmer id")
	}
	return oid, nil
}

// async runs fn in its own goroutine. Both channels are buffered so an abandoned call never
// blocks the goroutine.
func async[T any](fn func() (T, error)) (chan T, chan error) {
	resultChan := make(chan T, 1)
	errorChan := make(chan error, 1)

	go func() {
		res, err := fn()
		if err != nil {
			errorChan <- err
			return
		}
		resultChan <- res
	}()
	return resultChan, errorChan
}

func (r *FarmerRepository) Insert(ctx context.Context, farmer *models.FarmerModel) (chan string, chan error) {
	return async(func() (string, error) {
		coll, err := r.collection(ctx)
		if err != nil {
			return "", err
		}

		res, err := coll.InsertOne(ctx, farmer)
		if err != nil {
			return "", toStatus(err)
		}

		oid, ok := res.InsertedID.(primitive.ObjectID)
		if !ok {
			logger.Error("Unexpected inserted id type", zap.Any("insertedId", res.InsertedID))
			return "", status.Error(codes.Internal, "Unexpected inserted id")
		}
		farmer.FarmerId = oid
		return oid.Hex(), nil
	})
}

func (r *FarmerRepository) FindOneById(ctx context.Context, id string) (chan *models.FarmerModel, chan error) {
	return async(func() (*models.FarmerModel, error) {
		oid, err := ParseId(id)
		if err != nil {
			return nil, err
		}
		coll, err := r.collection(ctx)
		if err != nil {
			return nil, err
		}

		farmer := &models.FarmerModel{}
		if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(farmer); err != nil {
			return nil, toStatus(err)
		}
		return farmer, nil
	})
}

// FindByClientRef returns NotFound when no registration carried clientRef.
func (r *FarmerRepository) FindByClientRef(ctx context.Context, clientRef string) (chan *models.FarmerModel, chan error) {
	return async(func() (*models.FarmerModel, error) {
		coll, err := r.collection(ctx)
		if err != nil {
			return nil, err
		}

		farmer := &models.FarmerModel{}
		if err := coll.FindOne(ctx, bson.M{"clientRef": clientRef}).Decode(farmer); err != nil {
			return nil, toStatus(err)
		}
		return farmer, nil
	})
}

// EnsureIndexes creates the unique sparse clientRef index. Creating an existing index is a no-op.
func (r *FarmerRepository) EnsureIndexes(ctx context.Context) error {
	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}

	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "clientRef", Value: 1}},
		Options: options.Index().SetName("clientRef_unique").SetUnique(true).SetSparse(true),
	})
	return toStatus(err)
}

func (r *FarmerRepository) FindByEmail(ctx context.Context, email string) (chan []models.FarmerModel, chan error) {
	return async(func() ([]models.FarmerModel, error) {
		return r.findAll(ctx, bson.M{"email": email}, options.Find())
	})
}

func (r *FarmerRepository) Find(ctx context.Context, skip, limit int64) (chan []models.FarmerModel, chan error) {
	return async(func() ([]models.FarmerModel, error) {
		opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
		if skip > 0 {
			opts.SetSkip(skip)
		}
		if limit > 0 {
			opts.SetLimit(limit)
		}
		return r.findAll(ctx, bson.M{}, opts)
	})
}

func (r *FarmerRepository) findAll(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.FarmerModel, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, toStatus(err)
	}

	farmers := make([]models.FarmerModel, 0)
	if err := cursor.All(ctx, &farmers); err != nil {
		return nil, toStatus(err)
	}
	return farmers, nil
}

func (r *FarmerRepository) CountDocuments(ctx context.Context) (chan int64, chan error) {
	return async(func() (int64, error) {
		coll, err := r.collection(ctx)
		if err != nil {
			return 0, err
		}
		count, err := coll.CountDocuments(ctx, bson.M{})
		if err != nil {
			return 0, toStatus(err)
		}
		return count, nil
	})
}

// UpdateById merges set into the document. A missing id modifies nothing and is not an error.
func (r *FarmerRepository) UpdateById(ctx context.Context, id string, set bson.M) (chan int64, chan error) {
	return r.updateOne(ctx, id, bson.M{"$set": set})
}

func (r *FarmerRepository) PushCrop(ctx context.Context, id string, entry models.CropEntry) (chan int64, chan error) {
	return r.updateOne(ctx, id, bson.M{"$push": bson.M{"crops": entry}})
}

func (r *FarmerRepository) updateOne(ctx context.Context, id string, update bson.M) (chan int64, chan error) {
	return async(func() (int64, error) {
		oid, err := ParseId(id)
		if err != nil {
			return 0, err
		}
		coll, err := r.collection(ctx)
		if err != nil {
			return 0, err
		}

		res, err := coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
		if err != nil {
			return 0, toStatus(err)
		}
		return res.ModifiedCount, nil
	})
}

func (r *FarmerRepository) DeleteById(ctx context.Context, id string) (chan int64, chan error) {
	return async(func() (int64, error) {
		oid, err := ParseId(id)
		if err != nil {
			return 0, err
		}
		coll, err := r.collection(ctx)
		if err != nil {
			return 0, err
		}

		res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil {
			return 0, toStatus(err)
		}
		return res.DeletedCount, nil
	})
}

// toStatus maps driver errors onto the status codes the services hand to transports. The raw
// error is logged here and never leaves the process.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var selectionErr topology.ServerSelectionError
	switch {
	case mongo.IsDuplicateKeyError(err):
		return status.Error(codes.AlreadyExists, "Farmer already registered")
	case errors.Is(err, mongo.ErrNoDocuments):
		return status.Error(codes.NotFound, "Farmer not found")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "Request canceled")
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, mongo.ErrClientDisconnected),
		errors.As(err, &selectionErr),
		mongo.IsTimeout(err),
		mongo.IsNetworkError(err):
		logger.Error("Farmer store unreachable", zap.Error(err))
		return status.Error(codes.Unavailable, "Store unavailable")
	}

	logger.Error("Farmer store operation failed", zap.Error(err))
	return status.Error(codes.Internal, "Store operation failed")
}
