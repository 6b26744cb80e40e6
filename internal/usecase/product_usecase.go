package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ecshop/internal/domain/model"
	"ecshop/internal/logger"
	repo "ecshop/internal/repository"
	"ecshop/internal/validator"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	msgProductNotFoundFmt  = `Product with id "%s" not found`
	msgProductNameTakenFmt = `Product with name "%s" already exists`
	msgProductIDRequired   = "Product ID is required"
	msgNoFieldsToUpdate    = "No fields to update"
)

type ProductUsecase struct {
	tx       repo.TransactionManager
	products repo.ProductRepository
	cache    repo.ProductCache
	ids      IDGenerator
	clock    Clock
	log      zerolog.Logger
}

// DI
func NewProductUsecase(
	tx repo.TransactionManager,
	products repo.ProductRepository,
	cache repo.ProductCache,
	ids IDGenerator,
	clock Clock,
	log zerolog.Logger,
) *ProductUsecase {
	return &ProductUsecase{
		tx:       tx,
		products: products,
		cache:    cache,
		ids:      ids,
		clock:    clock,
		log:      log,
	}
}

// GET /productの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
	Sort     string
}

type ProductListOutput struct {
	Products []model.Product `json:"products"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

// 作成・更新の入力。nilは未指定
type ProductInput struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int64
	Tax         *decimal.Decimal
	ImageURL    *string
}

func (in ProductInput) fields() validator.ProductFields {
	return validator.ProductFields{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Stock:       in.Stock,
		Tax:         in.Tax,
	}
}

func (u *ProductUsecase) logger(ctx context.Context) *zerolog.Logger {
	return logger.From(ctx, &u.log)
}

func (u *ProductUsecase) List(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	switch in.Sort {
	case "", "new", "name", "price_asc", "price_desc":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.products.List(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		Category: strings.TrimSpace(in.Category),
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, internalError(u.logger(ctx), err, "product.list")
	}

	return ProductListOutput{
		Products: items,
		Total:    total,
		Page:     in.Page,
		Limit:    in.Limit,
	}, nil
}

// 詳細。キャッシュ → DB の順
func (u *ProductUsecase) Get(ctx context.Context, id string) (model.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, msgProductIDRequired)
	}
	log := u.logger(ctx)

	if p, ok, err := u.cache.Get(ctx, id); err != nil {
		log.Warn().Err(err).Str("product_id", id).Msg("product cache get failed")
	} else if ok {
		return p, nil
	}

	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, fmt.Sprintf(msgProductNotFoundFmt, id))
	}
	if err != nil {
		return model.Product{}, internalError(log, err, "product.get")
	}

	if err := u.cache.Set(ctx, p); err != nil {
		log.Warn().Err(err).Str("product_id", id).Msg("product cache set failed")
	}
	return p, nil
}

func (u *ProductUsecase) Create(ctx context.Context, actor model.Actor, in ProductInput) (model.Product, error) {
	if !actor.IsAdmin() {
		return model.Product{}, NewHTTPError(http.StatusForbidden, msgForbiddenRole)
	}
	if problems := validator.ValidateProductCreate(in.fields()); !problems.Empty() {
		return model.Product{}, NewValidationError(problems)
	}
	log := u.logger(ctx)

	name := strings.TrimSpace(*in.Name)
	if err := u.ensureNameFree(ctx, name, ""); err != nil {
		return model.Product{}, err
	}

	p := model.Product{
		ID:          u.ids.NewID(),
		Name:        name,
		Description: strings.TrimSpace(*in.Description),
		Category:    strings.TrimSpace(*in.Category),
		Price:       *in.Price,
		Stock:       *in.Stock,
		Tax:         decimal.Zero,
		Audit: model.Audit{
			CreatedAt: u.clock.Now(),
			CreatedBy: actor.ID,
		},
	}
	if in.Tax != nil {
		p.Tax = *in.Tax
	}
	if in.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*in.ImageURL)
	}

	err := u.products.Create(ctx, &p)
	if errors.Is(err, repo.ErrConflict) {
		// 同時作成で一意制約に当たった
		return model.Product{}, NewHTTPError(http.StatusConflict, fmt.Sprintf(msgProductNameTakenFmt, name))
	}
	if err != nil {
		return model.Product{}, internalError(log, err, "product.create")
	}

	log.Info().Str("product_id", p.ID).Str("user_id", actor.ID).Msg("product created")
	return p, nil
}

// 部分更新
func (u *ProductUsecase) Update(ctx context.Context, actor model.Actor, id string, in ProductInput) (model.Product, error) {
	if !actor.IsAdmin() {
		return model.Product{}, NewHTTPError(http.StatusForbidden, msgForbiddenRole)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, msgProductIDRequired)
	}

	patch := toPatch(in)
	if patch.IsEmpty() {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, msgNoFieldsToUpdate)
	}
	if problems := validator.ValidateProductFields(in.fields()); !problems.Empty() {
		return model.Product{}, NewValidationError(problems)
	}
	if patch.Name != nil {
		if err := u.ensureNameFree(ctx, *patch.Name, id); err != nil {
			return model.Product{}, err
		}
	}

	log := u.logger(ctx)
	var updated model.Product

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, fmt.Sprintf(msgProductNotFoundFmt, id))
		}
		if err != nil {
			return internalError(log, err, "product.update.find")
		}

		now := u.clock.Now()
		updated, err = r.Products().Update(ctx, id, patch, actor.ID, now)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, fmt.Sprintf(msgProductNotFoundFmt, id))
		}
		if errors.Is(err, repo.ErrConflict) && patch.Name != nil {
			return NewHTTPError(http.StatusConflict, fmt.Sprintf(msgProductNameTakenFmt, *patch.Name))
		}
		if err != nil {
			return internalError(log, err, "product.update")
		}

		if err := writeProductAudit(ctx, r, actor, model.AuditActionUpdateProduct, before, &updated, now); err != nil {
			return internalError(log, err, "product.update.audit")
		}
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}

	u.invalidate(ctx, id)
	log.Info().Str("product_id", id).Str("user_id", actor.ID).Msg("product updated")
	return updated, nil
}

// 論理削除
func (u *ProductUsecase) Delete(ctx context.Context, actor model.Actor, id string) error {
	if !actor.IsAdmin() {
		return NewHTTPError(http.StatusForbidden, msgForbiddenRole)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return NewHTTPError(http.StatusBadRequest, msgProductIDRequired)
	}

	log := u.logger(ctx)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, fmt.Sprintf(msgProductNotFoundFmt, id))
		}
		if err != nil {
			return internalError(log, err, "product.delete.find")
		}

		now := u.clock.Now()
		err = r.Products().SoftDelete(ctx, id, actor.ID, now)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, fmt.Sprintf(msgProductNotFoundFmt, id))
		}
		if err != nil {
			return internalError(log, err, "product.delete")
		}

		if err := writeProductAudit(ctx, r, actor, model.AuditActionDeleteProduct, before, nil, now); err != nil {
			return internalError(log, err, "product.delete.audit")
		}
		return nil
	})
	if err != nil {
		return err
	}

	u.invalidate(ctx, id)
	log.Info().Str("product_id", id).Str("user_id", actor.ID).Msg("product deleted")
	return nil
}

// 同名の商品が自分以外にあれば409
func (u *ProductUsecase) ensureNameFree(ctx context.Context, name string, selfID string) error {
	existing, err := u.products.FindByName(ctx, name)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return internalError(u.logger(ctx), err, "product.find_by_name")
	}
	if existing.ID != selfID {
		return NewHTTPError(http.StatusConflict, fmt.Sprintf(msgProductNameTakenFmt, name))
	}
	return nil
}

func (u *ProductUsecase) invalidate(ctx context.Context, ids ...string) {
	if err := u.cache.Invalidate(ctx, ids...); err != nil {
		u.logger(ctx).Warn().Err(err).Strs("product_ids", ids).Msg("product cache invalidate failed")
	}
}

func toPatch(in ProductInput) repo.ProductPatch {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	return repo.ProductPatch{
		Name:        trim(in.Name),
		Description: trim(in.Description),
		Category:    trim(in.Category),
		Price:       in.Price,
		Stock:       in.Stock,
		Tax:         in.Tax,
		ImageURL:    trim(in.ImageURL),
	}
}

// before/afterをJSONで残す。削除はafterなし
func writeProductAudit(ctx context.Context, r repo.TxRepos, actor model.Actor, action model.AuditAction, before model.Product, after *model.Product, at time.Time) error {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return err
	}
	afterJSON := []byte("null")
	if after != nil {
		if afterJSON, err = json.Marshal(after); err != nil {
			return err
		}
	}
	return r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  actor.ID,
		Action:       action,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   before.ID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
		CreatedAt:    at,
	})
}
