package notify

import (
	"fmt"

	"github.com/erazemk/drazba/internal/model"
)

// Outbid tells the previous highest bidder that someone bid above them.
func Outbid(userID int64, lotID, lotName string) model.Notification {
	return model.Notification{
		UserID:     userID,
		Type:       model.NotificationOutbid,
		Title:      "You have been outbid",
		Message:    fmt.Sprintf(`Your bid was outbid on lot "%s"`, lotName),
		EntityType: model.EntityLot,
		EntityID:   lotID,
	}
}

// BidPlaced confirms an accepted bid to the bidder.
func BidPlaced(userID int64, lotID, lotName string, amount int64) model.Notification {
	return model.Notification{
		UserID:     userID,
		Type:       model.NotificationBid,
		Title:      "Bid placed",
		Message:    fmt.Sprintf(`You placed a bid of %d on lot "%s"`, amount, lotName),
		EntityType: model.EntityLot,
		EntityID:   lotID,
	}
}

// Won tells a bidder they won a lot.
func Won(userID int64, lotID string, amount int64) model.Notification {
	return model.Notification{
		UserID:     userID,
		Type:       model.NotificationWon,
		Title:      "You won a lot",
		Message:    fmt.Sprintf("Congratulations! You won lot %s with bid %d.", lotID, amount),
		EntityType: model.EntityLot,
		EntityID:   lotID,
	}
}

// NewAuction announces a scheduled auction.
func NewAuction(userID int64, a *model.Auction) model.Notification {
	msg := fmt.Sprintf(`Auction "%s" has been scheduled`, a.Name)
	if a.Date != "" {
		msg += " for " + a.Date
		if a.StartTime != "" {
			msg += " at " + a.StartTime
		}
	}
	return model.Notification{
		UserID:     userID,
		Type:       model.NotificationNewAuction,
		Title:      "New auction",
		Message:    msg + ".",
		EntityType: model.EntityAuction,
		EntityID:   a.ID,
	}
}
