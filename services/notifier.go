package services

import (
	"context"

	"dz-fellah/events"
	"dz-fellah/libs"
	"dz-fellah/models"
	"dz-fellah/repositories"
	"dz-fellah/utils"

	"go.uber.org/zap"
)

// Notifier fans committed changes out to the event bus and to producers by
// email. It runs after commit and never fails the caller.
type Notifier struct {
	publisher events.Publisher
	mailer    libs.Mailer
	products  repositories.ProductRepository
	logger    *zap.Logger
}

func NewNotifier(publisher events.Publisher, mailer libs.Mailer, products repositories.ProductRepository, logger *zap.Logger) *Notifier {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if mailer == nil {
		mailer = libs.NopMailer{}
	}
	return &Notifier{publisher: publisher, mailer: mailer, products: products, logger: logger}
}

func (n *Notifier) publish(ctx context.Context, ev events.Event) {
	ev.RequestID = utils.RequestIDFrom(ctx)
	if err := n.publisher.Publish(ctx, ev); err != nil {
		n.logger.Warn("event not published",
			zap.String("type", ev.Type),
			zap.String("key", ev.Key),
			zap.Error(err))
	}
}

func (n *Notifier) OrderCreated(ctx context.Context, o *models.Order) {
	payload := events.OrderCreated{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		TotalAmount: o.TotalAmount,
	}
	for _, s := range o.SubOrders {
		payload.SubOrders = append(payload.SubOrders, events.SubOrderCreated{
			SubOrderID:     s.ID,
			SubOrderNumber: s.SubOrderNumber,
			ProducerID:     s.ProducerID,
			Subtotal:       s.Subtotal,
		})
	}
	n.publish(ctx, events.New(events.TypeOrderCreated, o.OrderNumber, payload))

	for _, s := range o.SubOrders {
		n.mailProducer(ctx, o, s)
	}
}

func (n *Notifier) mailProducer(ctx context.Context, o *models.Order, s models.SubOrder) {
	contact, err := n.products.GetProducerContact(ctx, s.ProducerID)
	if err != nil {
		n.logger.Warn("producer contact lookup failed",
			zap.Int64("producer_id", s.ProducerID), zap.Error(err))
		return
	}
	if contact.Email == "" {
		return
	}

	notice := libs.SubOrderNotice{
		ShopName:       contact.ShopName,
		OrderNumber:    o.OrderNumber,
		SubOrderNumber: s.SubOrderNumber,
		Subtotal:       s.Subtotal.StringFixed(2),
		DeliveryMethod: string(o.DeliveryMethod),
	}
	if o.Notes != nil {
		notice.Notes = *o.Notes
	}
	for _, it := range s.Items {
		notice.Items = append(notice.Items, libs.NoticeLine{
			Name:     it.ProductName,
			Quantity: it.QuantityOrdered.String(),
			Subtotal: it.Subtotal().StringFixed(2),
		})
	}
	if err := n.mailer.SendSubOrderCreated(contact.Email, notice); err != nil {
		n.logger.Warn("producer email not sent",
			zap.String("sub_order_number", s.SubOrderNumber), zap.Error(err))
	}
}

func (n *Notifier) OrderCancelled(ctx context.Context, o *models.Order) {
	n.publish(ctx, events.New(events.TypeOrderCancelled, o.OrderNumber, events.OrderCancelled{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
	}))
}

func (n *Notifier) SubOrderStatusChanged(ctx context.Context, o *models.Order, s *models.SubOrder, from models.OrderStatus) {
	n.publish(ctx, events.New(events.TypeSubOrderStatusChanged, o.OrderNumber, events.SubOrderStatusChanged{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		SubOrderID:     s.ID,
		SubOrderNumber: s.SubOrderNumber,
		ProducerID:     s.ProducerID,
		From:           string(from),
		To:             string(s.Status),
		OrderStatus:    string(o.Status),
	}))
}

func (n *Notifier) ItemAdjusted(ctx context.Context, o *models.Order, res *models.AdjustmentResult) {
	n.publish(ctx, events.New(events.TypeOrderItemAdjusted, o.OrderNumber, events.OrderItemAdjusted{
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		SubOrderID:      res.SubOrder.ID,
		ItemID:          res.Item.ID,
		QuantityOrdered: res.Item.QuantityOrdered,
		QuantityActual:  res.Item.BilledQuantity(),
		Adjustment:      res.Adjustment,
		OrderTotal:      res.OrderTotal,
	}))
}

func (n *Notifier) AntiGaspiSwept(ctx context.Context, res events.AntiGaspiSwept) {
	n.publish(ctx, events.New(events.TypeAntiGaspiSwept, "antigaspi", res))
}
