package service

import (
	"bidding-management-api/internal/entity"
)

func mapBid(b *entity.Bid) *entity.BidOutputModel {
	out := &entity.BidOutputModel{
		Id:              b.Id.String(),
		TaskId:          b.TaskId,
		BidderId:        b.BidderId,
		BidderEmail:     b.BidderEmail,
		Amount:          b.Amount.StringFixed(2),
		Proposal:        b.Proposal,
		Status:          b.Status,
		IsWinning:       b.IsWinning,
		RejectionReason: b.RejectionReason,
		AcceptedAt:      b.AcceptedAt,
		RejectedAt:      b.RejectedAt,
		UpiIdViewed:     b.UpiIdViewed,
		CreatedAt:       b.CreatedAt,
	}

	return out
}

// mapBidRevealed includes the UPI id. Only the view step responds with it;
// every other read keeps the payment handle out of the payload.
func mapBidRevealed(b *entity.Bid) *entity.BidOutputModel {
	out := mapBid(b)
	if b.UpiId != nil {
		out.UpiId = *b.UpiId
	}

	return out
}

func mapBids(bids []entity.Bid) []entity.BidOutputModel {
	s := make([]entity.BidOutputModel, 0)
	for _, bid := range bids {
		s = append(s, *mapBid(&bid))
	}

	return s
}
