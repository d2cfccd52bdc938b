package db

import (
	"context"
	"testing"

	"github.com/Kotlang/fasalneetiGo/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func await[T any](resChan chan T, errChan chan error) (T, error) {
	select {
	case res := <-resChan:
		return res, nil
	case err := <-errChan:
		var zero T
		return zero, err
	}
}

func codeOf(err error) codes.Code {
	return status.Code(err)
}

func TestFarmerRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	oid := primitive.NewObjectID()
	ns := "fasalneeti.farmers"

	mt.Run("insert returns generated id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewFarmerRepository(StaticCollection(mt.Coll))

		farmer := &models.FarmerModel{Name: "A", Email: "a@b.com"}
		id, err := await(repo.Insert(ctx, farmer))

		require.NoError(mt, err)
		assert.Len(mt, id, 24)
		assert.Equal(mt, id, farmer.Id())
	})

	mt.Run("insert write error is internal", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 121, Message: "document failed validation"}))
		repo := NewFarmerRepository(StaticCollection(mt.Coll))

		_, err := await(repo.Insert(ctx, &models.FarmerModel{Name: "A"}))
		assert.Equal(mt, codes.Internal, codeOf(err))
		assert.NotContains(mt, err.Error(), "document failed validation")
	})

	mt.Run("find one by id decodes profile", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "name", Value: "A"},
			{Key: "email", Value: "a@b.com"},
			{Key: "soilPH", Value: 6.8},
			{Key: "crops", Value: bson.A{bson.D{{Key: "crop", Value: "Wheat"}}}},
		}))
		repo := NewFarmerRepository(StaticCollection(mt.Coll))

		farmer, err := await(repo.FindOneById(ctx, oid.Hex()))
		require.NoError(mt, err)
		assert.Equal(mt, "A", farmer.Name)
		require.NotNil(mt, farmer.SoilPH)
		assert.Equal(mt, 6.8, *farmer.SoilPH)
		require.Len(mt, farmer.Crops, 1)
		assert.Equal(mt, "Wheat", farmer.Crops[0]["crop"])
	})

	mt.Run("find one by id missing is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		repo := NewFarmerRepository(StaticCollection(mt.Coll))

		_, err := await(repo.FindOneById(ctx, oid.Hex()))
		assert.Equal(mt, codes.NotFound, codeOf(err))
	})

	mt.Run("malformed id is invalid argument", func(mt *mtest.T) {
		repo := NewFarmerRepository(StaticCollection(mt.Coll))

		_, err := await(repo.FindOneById(ctx, "not-an-id"))
		assert.Equal(mt, codes.InvalidArgument, codeOf(err))

		_, err = await(repo.UpdateById(ctx, "xyz", bson.M{"name": "B"}))
		assert.Equal(mt, codes.InvalidArgument, codeOf(err))

		_, err = await(repo.DeleteById(ctx, ""))
		assert.Equal(mt, codes.InvalidArgument, codeOf(err))
	})

	mt.Run("find by email returns every match", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "email", Value: "a@b.com"}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "email", Value: "a@b.com"}},
		))
		repo := NewFarmerRepository(StaticCollection(mt.Coll))

		farmers, err := await(repo.FindByEmail(ctx, "a@b.com"))
		require.NoError(mt, err)
		assert.Len(mt, farmers, 2)
	})

	mt.Run("find on empty collection is empty slice", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		repo := NewFarmerRepository(StaticCollection(mt.Coll))

		farmers, err := await(repo.Find(ctx, 0, 0))
		require.NoError(mt, err)
		assert.NotNil(mt, farmers)
		assert.Empty(mt, farmers)
	})

	mt.Run("count documents", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}))
		repo := NewFarmerRepository(StaticCollection(mt.Coll))

		count, err := await(repo.CountDocuments(ctx))
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), count)
	})

	mt.Run("update reports modified count", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		repo := NewFarmerRepository(StaticCollection(mt.Coll))

		modified, err := await(repo.UpdateById(ctx, oid.Hex(), bson.M{"location": "Y"}))
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), modified)
	})

	mt.Run("update of missing id modifies nothing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		repo := NewFarmerRepository(StaticCollection(mt.Coll))

		modified, err := await(repo.PushCrop(ctx, oid.Hex(), models.CropEntry{"crop": "Rice"}))
		require.NoError(mt, err)
		assert.Equal(mt, int64(0), modified)
	})

	mt.Run("delete reports deleted count", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		repo := NewFarmerRepository(StaticCollection(mt.Coll))

		deleted, err := await(repo.DeleteById(ctx, oid.Hex()))
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), deleted)
	})

	mt.Run("duplicate client reference is already exists", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}))
		repo := NewFarmerRepository(StaticCollection(mt.Coll))

		_, err := await(repo.Insert(ctx, &models.FarmerModel{Name: "A", ClientRef: "ref-1"}))
		assert.Equal(mt, codes.AlreadyExists, codeOf(err))
		assert.NotContains(mt, err.Error(), "E11000")
	})

	mt.Run("find by client reference", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "name", Value: "A"},
			{Key: "clientRef", Value: "ref-1"},
		}))
		repo := NewFarmerRepository(StaticCollection(mt.Coll))

		farmer, err := await(repo.FindByClientRef(ctx, "ref-1"))
		require.NoError(mt, err)
		assert.Equal(mt, oid.Hex(), farmer.Id())
		assert.Equal(mt, "ref-1", farmer.ClientRef)
	})

	mt.Run("find by unknown client reference is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		repo := NewFarmerRepository(StaticCollection(mt.Coll))

		_, err := await(repo.FindByClientRef(ctx, "ref-2"))
		assert.Equal(mt, codes.NotFound, codeOf(err))
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewFarmerRepository(StaticCollection(mt.Coll))

		require.NoError(mt, repo.EnsureIndexes(ctx))
	})

	mt.Run("collection failure propagates", func(mt *mtest.T) {
		repo := NewFarmerRepository(func(context.Context) (*mongo.Collection, error) {
			return nil, status.Error(codes.Unavailable, "Store unavailable")
		})

		_, err := await(repo.Insert(ctx, &models.FarmerModel{}))
		assert.Equal(mt, codes.Unavailable, codeOf(err))
	})
}

func TestToStatus(t *testing.T) {
	assert.Nil(t, toStatus(nil))
	assert.Equal(t, codes.NotFound, codeOf(toStatus(mongo.ErrNoDocuments)))
	assert.Equal(t, codes.Unavailable, codeOf(toStatus(context.DeadlineExceeded)))
	assert.Equal(t, codes.Canceled, codeOf(toStatus(context.Canceled)))
	assert.Equal(t, codes.Unavailable, codeOf(toStatus(mongo.ErrClientDisconnected)))
	assert.Equal(t, codes.AlreadyExists, codeOf(toStatus(status.Error(codes.AlreadyExists, "dup"))))
	assert.Equal(t, codes.Internal, codeOf(toStatus(assert.AnError)))
}
