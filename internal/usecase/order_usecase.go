package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ecshop/internal/domain/event"
	"ecshop/internal/domain/model"
	"ecshop/internal/domain/pricing"
	"ecshop/internal/logger"
	repo "ecshop/internal/repository"
	"ecshop/internal/validator"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	msgProductsNotFound  = "Some products not found"
	msgOrderIDRequired   = "Order ID is required"
	msgStatusRequired    = "Order status is required"
	msgStatusInvalid     = "Invalid order status"
	msgOrderForbidden    = "You do not have permission to access this order"
	msgAlreadyCancelled  = "Order is already cancelled"
	msgOrderNotFoundFmt  = "Order with ID %s not found"
	msgCannotUpdateFmt   = "Cannot update order with status %s"
	msgInsufficientStock = "Insufficient stock for product %s"
)

type OrderUsecase struct {
	tx          repo.TransactionManager
	cache       repo.ProductCache
	events      OrderEventPublisher
	ids         IDGenerator
	clock       Clock
	shippingFee decimal.Decimal
	log         zerolog.Logger
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	cache repo.ProductCache,
	events OrderEventPublisher,
	ids IDGenerator,
	clock Clock,
	shippingFee decimal.Decimal,
	log zerolog.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		tx:          tx,
		cache:       cache,
		events:      events,
		ids:         ids,
		clock:       clock,
		shippingFee: shippingFee,
		log:         log,
	}
}

type OrderItemInput struct {
	ProductID string
	Quantity  int64
}

type CreateOrderInput struct {
	Items    []OrderItemInput
	Shipping model.ShippingDetails
}

type OrderItemOutput struct {
	ProductID       string          `json:"productId"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	ImageURL        string          `json:"imageUrl"`
	Quantity        int64           `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
	TaxAtPurchase   decimal.Decimal `json:"taxAtPurchase"`
}

type OrderOutput struct {
	ID              string                `json:"id"`
	ShippingDetails model.ShippingDetails `json:"shippingDetails"`
	Items           []OrderItemOutput     `json:"items"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	TaxTotal        decimal.Decimal       `json:"taxTotal"`
	ShippingFee     decimal.Decimal       `json:"shippingFee"`
	Total           decimal.Decimal       `json:"total"`
	Status          model.OrderStatus     `json:"status"`
	CreatedBy       string                `json:"createdBy"`
	UpdatedBy       *string               `json:"updatedBy"`
	DeletedBy       *string               `json:"deletedBy"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       *time.Time            `json:"updatedAt"`
}

func (u *OrderUsecase) logger(ctx context.Context) *zerolog.Logger {
	return logger.From(ctx, &u.log)
}

// 注文作成。在庫チェック・金額計算・注文保存・在庫減算を1つのTxで行う
func (u *OrderUsecase) CreateOrder(ctx context.Context, actor model.Actor, in CreateOrderInput) (OrderOutput, error) {
	if actor.ID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, msgUnauthorized)
	}

	lines := make([]validator.OrderLine, len(in.Items))
	for i, it := range in.Items {
		lines[i] = validator.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	problems := append(validator.ValidateOrderLines(lines), validator.ValidateShipping(in.Shipping)...)
	if !problems.Empty() {
		return OrderOutput{}, NewValidationError(problems)
	}

	ids := make([]string, len(in.Items))
	for i, it := range in.Items {
		ids[i] = strings.TrimSpace(it.ProductID)
	}

	log := u.logger(ctx)
	var created model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//行ロックで商品を取得（削除済みは含まれない）
		products, err := r.Products().FindByIDs(ctx, ids, true)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, msgProductsNotFound)
		}
		if err != nil {
			return internalError(log, err, "order.create.find_products")
		}
		if len(products) != len(ids) {
			return NewHTTPError(http.StatusNotFound, msgProductsNotFound)
		}

		byID := make(map[string]model.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		priced := make([]pricing.Line, 0, len(ids))
		for i, id := range ids {
			p, ok := byID[id]
			if !ok {
				return NewHTTPError(http.StatusNotFound, msgProductsNotFound)
			}
			priced = append(priced, pricing.Line{
				ProductID: p.ID,
				Name:      p.Name,
				Price:     p.Price,
				Tax:       p.Tax,
				Stock:     p.Stock,
				Quantity:  in.Items[i].Quantity,
			})
		}

		//在庫確認 + 金額計算
		quote, err := pricing.Calculate(priced, u.shippingFee)
		var ise *pricing.InsufficientStockError
		if errors.As(err, &ise) {
			return NewHTTPError(http.StatusBadRequest, ise.Error())
		}
		if err != nil {
			return internalError(log, err, "order.create.pricing")
		}

		now := u.clock.Now()
		order := model.Order{
			ID:          u.ids.NewID(),
			Shipping:    validator.NormalizeShipping(in.Shipping),
			Subtotal:    quote.Subtotal,
			TaxTotal:    quote.TaxTotal,
			ShippingFee: quote.ShippingFee,
			Total:       quote.Total,
			Status:      model.OrderStatusPending,
			Audit: model.Audit{
				CreatedAt: now,
				CreatedBy: actor.ID,
			},
		}
		if err := r.Orders().Create(ctx, &order); err != nil {
			return internalError(log, err, "order.create.insert_order")
		}

		//スナップショット
		items := make([]model.OrderItem, 0, len(ids))
		for i, id := range ids {
			p := byID[id]
			items = append(items, model.OrderItem{
				OrderID:     order.ID,
				Position:    i,
				ProductID:   p.ID,
				Name:        p.Name,
				Description: p.Description,
				ImageURL:    p.ImageURL,
				Quantity:    in.Items[i].Quantity,
				Price:       p.Price,
				Tax:         p.Tax,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, order.ID, items); err != nil {
			return internalError(log, err, "order.create.insert_items")
		}

		//在庫減算。1件でも足りなければTxごと戻す
		for _, it := range items {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return internalError(log, err, "order.create.decrease_stock")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, fmt.Sprintf(msgInsufficientStock, it.Name))
			}
		}

		order.Items = items
		created = order
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	log.Info().Str("order_id", created.ID).Str("user_id", actor.ID).Str("total", created.Total.String()).Msg("order created")
	u.afterCommit(ctx, event.OrderCreated, created, actor.ID)
	return toOrderOutput(created), nil
}

// 全注文（管理者）
func (u *OrderUsecase) ListAll(ctx context.Context, actor model.Actor) ([]OrderOutput, error) {
	if !actor.IsAdmin() {
		return []OrderOutput{}, NewHTTPError(http.StatusForbidden, msgForbiddenRole)
	}

	var outs []OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListAll(ctx)
		if err != nil {
			return internalError(u.logger(ctx), err, "order.list_all")
		}
		outs = toOrderOutputs(orders)
		return nil
	})
	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// 自分の注文
func (u *OrderUsecase) ListMine(ctx context.Context, actor model.Actor) ([]OrderOutput, error) {
	if actor.ID == "" {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, msgUnauthorized)
	}

	var outs []OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListByCreator(ctx, actor.ID)
		if err != nil {
			return internalError(u.logger(ctx), err, "order.list_mine")
		}
		outs = toOrderOutputs(orders)
		return nil
	})
	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetByID(ctx context.Context, actor model.Actor, orderID string) (OrderOutput, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, msgOrderIDRequired)
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := u.findAccessible(ctx, r, actor, orderID, false)
		if err != nil {
			return err
		}
		out = toOrderOutput(o)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// キャンセル（在庫戻しを含む）
func (u *OrderUsecase) Cancel(ctx context.Context, actor model.Actor, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return NewHTTPError(http.StatusBadRequest, msgOrderIDRequired)
	}

	var cancelled model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := u.findAccessible(ctx, r, actor, orderID, true)
		if err != nil {
			return err
		}
		cancelled, err = u.cancelInTx(ctx, r, actor, o)
		return err
	})
	if err != nil {
		return err
	}

	u.logger(ctx).Info().Str("order_id", cancelled.ID).Str("user_id", actor.ID).Msg("order cancelled")
	u.afterCommit(ctx, event.OrderCancelled, cancelled, actor.ID)
	return nil
}

// ステータス更新。CANCELLEDへの変更はキャンセルと同じ扱い
func (u *OrderUsecase) UpdateStatus(ctx context.Context, actor model.Actor, orderID string, status string) (OrderOutput, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, msgOrderIDRequired)
	}
	if strings.TrimSpace(status) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, msgStatusRequired)
	}
	next, ok := model.ParseOrderStatus(status)
	if !ok {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, msgStatusInvalid)
	}

	log := u.logger(ctx)
	var updated model.Order
	evType := event.OrderStatusUpdated

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := u.findAccessible(ctx, r, actor, orderID, true)
		if err != nil {
			return err
		}

		// 終端ガード
		if o.Status.IsTerminal() {
			return NewHTTPError(http.StatusBadRequest, fmt.Sprintf(msgCannotUpdateFmt, o.Status))
		}

		if next == model.OrderStatusCancelled {
			evType = event.OrderCancelled
			updated, err = u.cancelInTx(ctx, r, actor, o)
			return err
		}

		now := u.clock.Now()
		ok, err := r.Orders().UpdateStatusIfActive(ctx, o.ID, next, actor.ID, now)
		if err != nil {
			return internalError(log, err, "order.update_status")
		}
		if !ok {
			return NewHTTPError(http.StatusBadRequest, fmt.Sprintf(msgCannotUpdateFmt, model.OrderStatusCancelled))
		}

		if err := u.writeAudit(ctx, r, actor, model.AuditActionUpdateOrderStatus, o.ID, o.Status, next, now); err != nil {
			return internalError(log, err, "order.update_status.audit")
		}

		o.Status = next
		o.UpdatedAt = &now
		o.UpdatedBy = &actor.ID
		updated = o
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	log.Info().Str("order_id", updated.ID).Str("status", string(updated.Status)).Str("user_id", actor.ID).Msg("order status updated")
	u.afterCommit(ctx, evType, updated, actor.ID)
	return toOrderOutput(updated), nil
}

// 存在チェック（404）→ 所有者か管理者か（403）
func (u *OrderUsecase) findAccessible(ctx context.Context, r repo.TxRepos, actor model.Actor, orderID string, forUpdate bool) (model.Order, error) {
	o, err := r.Orders().FindByID(ctx, orderID, forUpdate)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, fmt.Sprintf(msgOrderNotFoundFmt, orderID))
	}
	if err != nil {
		return model.Order{}, internalError(u.logger(ctx), err, "order.find")
	}
	if !o.IsOwnedBy(actor.ID) && !actor.IsAdmin() {
		return model.Order{}, NewHTTPError(http.StatusForbidden, msgOrderForbidden)
	}
	return o, nil
}

// ステータスをCANCELLEDにして明細ぶんの在庫を戻す。
// 条件付き更新なので2回目のキャンセルでは在庫は戻らない
func (u *OrderUsecase) cancelInTx(ctx context.Context, r repo.TxRepos, actor model.Actor, o model.Order) (model.Order, error) {
	log := u.logger(ctx)
	if o.Status.IsTerminal() {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, msgAlreadyCancelled)
	}

	now := u.clock.Now()
	ok, err := r.Orders().UpdateStatusIfActive(ctx, o.ID, model.OrderStatusCancelled, actor.ID, now)
	if err != nil {
		return model.Order{}, internalError(log, err, "order.cancel.update_status")
	}
	if !ok {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, msgAlreadyCancelled)
	}

	for _, it := range o.Items {
		err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity)
		if errors.Is(err, repo.ErrNotFound) {
			// 商品が消えていたら戻し先がないのでスキップ
			log.Warn().Str("order_id", o.ID).Str("product_id", it.ProductID).Int64("quantity", it.Quantity).Msg("stock restore skipped: product missing")
			continue
		}
		if err != nil {
			return model.Order{}, internalError(log, err, "order.cancel.restore_stock")
		}
	}

	if err := u.writeAudit(ctx, r, actor, model.AuditActionCancelOrder, o.ID, o.Status, model.OrderStatusCancelled, now); err != nil {
		return model.Order{}, internalError(log, err, "order.cancel.audit")
	}

	o.Status = model.OrderStatusCancelled
	o.UpdatedAt = &now
	o.UpdatedBy = &actor.ID
	return o, nil
}

type statusSnapshot struct {
	Status model.OrderStatus `json:"status"`
}

func (u *OrderUsecase) writeAudit(ctx context.Context, r repo.TxRepos, actor model.Actor, action model.AuditAction, orderID string, before, after model.OrderStatus, at time.Time) error {
	beforeJSON, err := json.Marshal(statusSnapshot{Status: before})
	if err != nil {
		return err
	}
	afterJSON, err := json.Marshal(statusSnapshot{Status: after})
	if err != nil {
		return err
	}
	return r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  actor.ID,
		Action:       action,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
		CreatedAt:    at,
	})
}

// コミット後の処理。失敗してもリクエストは成功のまま（ログだけ）
func (u *OrderUsecase) afterCommit(ctx context.Context, t event.OrderEventType, o model.Order, actorID string) {
	log := u.logger(ctx)

	// 在庫が変わった商品のキャッシュを消す
	if t == event.OrderCreated || t == event.OrderCancelled {
		ids := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			ids = append(ids, it.ProductID)
		}
		if err := u.cache.Invalidate(ctx, ids...); err != nil {
			log.Warn().Err(err).Str("order_id", o.ID).Msg("product cache invalidate failed")
		}
	}

	if err := u.events.Publish(ctx, event.NewOrderEvent(t, o, actorID, u.clock.Now())); err != nil {
		log.Error().Err(err).Str("order_id", o.ID).Str("event", string(t)).Msg("order event publish failed")
	}
}

func toOrderOutputs(orders []model.Order) []OrderOutput {
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o))
	}
	return outs
}

func toOrderOutput(o model.Order) OrderOutput {
	items := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemOutput{
			ProductID:       it.ProductID,
			Name:            it.Name,
			Description:     it.Description,
			ImageURL:        it.ImageURL,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.Price,
			TaxAtPurchase:   it.Tax,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		ShippingDetails: o.Shipping,
		Items:           items,
		Subtotal:        o.Subtotal,
		TaxTotal:        o.TaxTotal,
		ShippingFee:     o.ShippingFee,
		Total:           o.Total,
		Status:          o.Status,
		CreatedBy:       o.CreatedBy,
		UpdatedBy:       o.UpdatedBy,
		DeletedBy:       o.DeletedBy,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
