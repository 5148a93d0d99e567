// internal/service/cart/application/service.go
package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"bazaar/internal/pkg/logger"
	catalogdomain "bazaar/internal/service/catalog/domain"
	"bazaar/internal/service/cart/domain"
)

// CartService 提供购物车相关的所有业务用例。
type CartService struct {
	cartRepo    domain.ItemRepository
	catalogRepo catalogdomain.CatalogRepository
	tracer      trace.Tracer
}

// NewCartService 创建一个新的购物车服务实例
func NewCartService(cartRepo domain.ItemRepository, catalogRepo catalogdomain.CatalogRepository, tracer trace.Tracer) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		catalogRepo: catalogRepo,
		tracer:      tracer,
	}
}

// AddItem 把一个商品（可带颜色/保修选择）加入用户购物车。
// 同一商品同一选择组合重复加车时合并数量，不新建条目。
func (s *CartService) AddItem(ctx context.Context, req *AddItemRequest) (*domain.Item, error) {
	ctx, span := s.tracer.Start(ctx, "cart.AddItem")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user.id", req.UserID),
		attribute.Int64("product.id", req.ProductID),
		attribute.Int("qty", req.Qty),
	)

	if req.Qty <= 0 {
		return nil, domain.ErrInvalidQty
	}

	product, err := s.catalogRepo.FindProduct(ctx, req.ProductID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if product.Status != catalogdomain.ProductActive {
		return nil, catalogdomain.ErrProductNotFound
	}

	// 颜色/保修是可选项，但给了就必须存在
	if req.ColorID != nil {
		if _, err := s.catalogRepo.FindColor(ctx, *req.ColorID); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}
	if req.GuaranteeID != nil {
		if _, err := s.catalogRepo.FindGuarantee(ctx, *req.GuaranteeID); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	existing, err := s.cartRepo.FindByUserAndSelection(ctx, req.UserID, req.ProductID, req.ColorID, req.GuaranteeID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if existing != nil {
		existing.Qty += req.Qty
		if err := s.cartRepo.Save(ctx, existing); err != nil {
			span.RecordError(err)
			return nil, err
		}
		span.AddEvent("Merged quantity into existing cart item.")
		return existing, nil
	}

	item := &domain.Item{
		UserID:      req.UserID,
		ProductID:   req.ProductID,
		ColorID:     req.ColorID,
		GuaranteeID: req.GuaranteeID,
		Qty:         req.Qty,
	}
	if err := s.cartRepo.Save(ctx, item); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return item, nil
}

// RemoveItem 从购物车删除一条记录，只能删自己的。
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) error {
	ctx, span := s.tracer.Start(ctx, "cart.RemoveItem")
	defer span.End()

	item, err := s.cartRepo.FindByID(ctx, itemID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if item.UserID != userID {
		return domain.ErrNotOwnedByUser
	}
	return s.cartRepo.Delete(ctx, itemID)
}

// ClearCart 清空用户的整个购物车。
func (s *CartService) ClearCart(ctx context.Context, userID int64) error {
	ctx, span := s.tracer.Start(ctx, "cart.ClearCart")
	defer span.End()

	if err := s.cartRepo.DeleteByUser(ctx, userID); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Summary 返回带实时报价的购物车汇总。
// 每条记录的定价互相独立，用 errgroup 并发计算。
func (s *CartService) Summary(ctx context.Context, userID int64) (*CartSummary, error) {
	ctx, span := s.tracer.Start(ctx, "cart.Summary")
	defer span.End()

	items, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := time.Now()
	lines := make([]PricedLine, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			line, err := s.priceLine(gctx, item, now)
			if err != nil {
				return err
			}
			lines[i] = *line
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to price cart items")
		return nil, err
	}

	var total int64
	for _, line := range lines {
		total += line.Quote.FinalLineTotal
	}

	span.SetAttributes(
		attribute.Int("cart.lines", len(lines)),
		attribute.Int64("cart.items_total", total),
	)
	logger.Ctx(ctx).Debug().Int64("user_id", userID).Int64("items_total", total).Msg("cart summary computed")

	return &CartSummary{Lines: lines, ItemsTotal: total}, nil
}

// priceLine 把一条购物车记录和当前目录状态拼成报价。
func (s *CartService) priceLine(ctx context.Context, item *domain.Item, now time.Time) (*PricedLine, error) {
	product, err := s.catalogRepo.FindProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}

	var color *catalogdomain.Color
	if item.ColorID != nil {
		if color, err = s.catalogRepo.FindColor(ctx, *item.ColorID); err != nil {
			return nil, err
		}
	}

	var guarantee *catalogdomain.Guarantee
	if item.GuaranteeID != nil {
		if guarantee, err = s.catalogRepo.FindGuarantee(ctx, *item.GuaranteeID); err != nil {
			return nil, err
		}
	}

	sale, err := s.catalogRepo.FindActiveSale(ctx, item.ProductID, now)
	if err != nil {
		return nil, err
	}

	quote := catalogdomain.PriceItem(product, color, guarantee, sale, item.Qty, now)
	return &PricedLine{
		Item:      item,
		Product:   product,
		Color:     color,
		Guarantee: guarantee,
		Quote:     quote,
	}, nil
}
