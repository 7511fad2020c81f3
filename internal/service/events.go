package service

import (
	"go-storefront/internal/model"
	"go-storefront/internal/ws"
)

// EventPublisher fans committed changes out to live clients. *ws.Hub
// implements it. Stock events go to everyone; order events only to the
// order's owner and staff.
type EventPublisher interface {
	Publish(event ws.Event)
}

type stockEvent struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	Stock     int    `json:"stock"`
	IsActive  bool   `json:"is_active"`
}

type orderEvent struct {
	OrderID string            `json:"order_id"`
	UserID  string            `json:"user_id"`
	Status  model.OrderStatus `json:"status"`
	Total   string            `json:"total_amount"`
}

func publishStock(pub EventPublisher, action string, products ...*model.Product) {
	if pub == nil {
		return
	}
	for _, p := range products {
		if p == nil {
			continue
		}
		pub.Publish(ws.Event{
			Type:   ws.EventStockUpdate,
			Action: action,
			Data: stockEvent{
				ProductID: p.ID.String(),
				Title:     p.Title,
				Stock:     p.Stock,
				IsActive:  p.IsActive,
			},
		})
	}
}

func publishOrder(pub EventPublisher, action string, order *model.Order) {
	if pub == nil || order == nil {
		return
	}
	pub.Publish(ws.Event{
		Type:   ws.EventOrderUpdate,
		Action: action,
		Owner:  order.UserID.String(),
		Data: orderEvent{
			OrderID: order.ID.String(),
			UserID:  order.UserID.String(),
			Status:  order.Status,
			Total:   order.TotalAmount.StringFixed(2),
		},
	})
}
