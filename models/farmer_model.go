package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// CropEntry is a free-form crop log record supplied by the client.
type CropEntry map[string]interface{}

type FarmerModel struct {
	FarmerId          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name              string             `bson:"name" json:"name"`
	Email             string             `bson:"email" json:"email"`
	Mobile            string             `bson:"mobile" json:"mobile"`
	Location          string             `bson:"location" json:"location"`
	PasswordHash      string             `bson:"passwordHash,omitempty" json:"-"`
	FarmSize          string             `bson:"farmSize,omitempty" json:"farmSize,omitempty"`
	SoilType          string             `bson:"soilType,omitempty" json:"soilType,omitempty"`
	SoilPH            *float64           `bson:"soilPH,omitempty" json:"soilPH,omitempty"`
	LastCrop          string             `bson:"lastCrop,omitempty" json:"lastCrop,omitempty"`
	IrrigationType    string             `bson:"irrigationType,omitempty" json:"irrigationType,omitempty"`
	FertilizerUsage   string             `bson:"fertilizerUsage,omitempty" json:"fertilizerUsage,omitempty"`
	PesticidesUsed    string             `bson:"pesticidesUsed,omitempty" json:"pesticidesUsed,omitempty"`
	FarmingExperience string             `bson:"farmingExperience,omitempty" json:"farmingExperience,omitempty"`
	Crops             []CropEntry        `bson:"crops,omitempty" json:"crops,omitempty"`
	CreatedOn         int64              `bson:"createdOn,omitempty" json:"createdOn,omitempty"`
	// ClientRef is the caller's idempotency key; a replayed registration carries the same one.
	ClientRef string `bson:"clientRef,omitempty" json:"-"`
}

func (m *FarmerModel) Id() string {
	if m.FarmerId.IsZero() {
		return ""
	}
	return m.FarmerId.Hex()
}
