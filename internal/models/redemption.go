package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Redemption is an immutable audit row; one per successful redeem call.
// There is no update or delete path for redemptions.
type Redemption struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DealID        primitive.ObjectID `json:"deal_id" bson:"deal_id" validate:"required"`
	UserID        primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	BusinessID    primitive.ObjectID `json:"business_id" bson:"business_id" validate:"required"`
	Code          string             `json:"code" bson:"code"`
	OriginalPrice float64            `json:"original_price" bson:"original_price"`
	PaidPrice     float64            `json:"paid_price" bson:"paid_price"`
	SavingsAmount float64            `json:"savings_amount" bson:"savings_amount"`
	DealCategory  string             `json:"deal_category" bson:"deal_category"`
	RedeemedAt    time.Time          `json:"redeemed_at" bson:"redeemed_at"`
}

// RedemptionReceipt is the caller-facing view of a redemption.
type RedemptionReceipt struct {
	ID            primitive.ObjectID `json:"id"`
	OriginalPrice float64            `json:"original_price"`
	PaidPrice     float64            `json:"paid_price"`
	SavingsAmount float64            `json:"savings_amount"`
	DealCategory  string             `json:"deal_category"`
	RedeemedAt    time.Time          `json:"redeemed_at"`
}

func (r *Redemption) Receipt() *RedemptionReceipt {
	return &RedemptionReceipt{
		ID:            r.ID,
		OriginalPrice: r.OriginalPrice,
		PaidPrice:     r.PaidPrice,
		SavingsAmount: r.SavingsAmount,
		DealCategory:  r.DealCategory,
		RedeemedAt:    r.RedeemedAt,
	}
}
