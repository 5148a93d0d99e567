// internal/service/checkout/infrastructure/mapper.go
package infrastructure

import (
	"encoding/json"

	"github.com/pkg/errors"

	"bazaar/internal/service/checkout/domain"
)

// 快照列统一走 JSON 序列化。泛型辅助函数把 nil 指针映射为 NULL 列。

func marshalJSON[T any](v *T) (*string, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal snapshot")
	}
	s := string(raw)
	return &s, nil
}

func unmarshalJSON[T any](raw *string) (*T, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(*raw), &v); err != nil {
		return nil, errors.Wrap(err, "unmarshal snapshot")
	}
	return &v, nil
}

func fromDomainSession(s *domain.Session) (*SessionModel, error) {
	addressJSON, err := marshalJSON(s.Address)
	if err != nil {
		return nil, err
	}
	deliveryJSON, err := marshalJSON(s.Delivery)
	if err != nil {
		return nil, err
	}
	discountJSON, err := marshalJSON(s.CommonDiscount)
	if err != nil {
		return nil, err
	}
	couponJSON, err := marshalJSON(s.Coupon)
	if err != nil {
		return nil, err
	}

	var openFlag *int8
	if s.State == domain.SessionOpen {
		one := int8(1)
		openFlag = &one
	}

	return &SessionModel{
		ID:                   s.ID,
		UserID:               s.UserID,
		OpenFlag:             openFlag,
		State:                string(s.State),
		AddressJSON:          addressJSON,
		DeliveryJSON:         deliveryJSON,
		CommonDiscountJSON:   discountJSON,
		CouponJSON:           couponJSON,
		ItemsTotal:           s.ItemsTotal,
		CommonDiscountAmount: s.CommonDiscountAmount,
		OrderFinalAmount:     s.OrderFinalAmount,
		CouponDiscountAmount: s.CouponDiscountAmount,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}, nil
}

func toDomainSession(m *SessionModel) (*domain.Session, error) {
	address, err := unmarshalJSON[domain.AddressSnapshot](m.AddressJSON)
	if err != nil {
		return nil, err
	}
	delivery, err := unmarshalJSON[domain.DeliverySnapshot](m.DeliveryJSON)
	if err != nil {
		return nil, err
	}
	discount, err := unmarshalJSON[domain.CommonDiscountSnapshot](m.CommonDiscountJSON)
	if err != nil {
		return nil, err
	}
	coupon, err := unmarshalJSON[domain.CouponSnapshot](m.CouponJSON)
	if err != nil {
		return nil, err
	}

	return &domain.Session{
		ID:                   m.ID,
		UserID:               m.UserID,
		State:                domain.SessionState(m.State),
		Address:              address,
		Delivery:             delivery,
		CommonDiscount:       discount,
		Coupon:               coupon,
		ItemsTotal:           m.ItemsTotal,
		CommonDiscountAmount: m.CommonDiscountAmount,
		OrderFinalAmount:     m.OrderFinalAmount,
		CouponDiscountAmount: m.CouponDiscountAmount,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}, nil
}

func fromDomainOrder(o *domain.Order) (*OrderModel, error) {
	addressJSON, err := marshalJSON(&o.Address)
	if err != nil {
		return nil, err
	}
	deliveryJSON, err := marshalJSON(&o.Delivery)
	if err != nil {
		return nil, err
	}
	discountJSON, err := marshalJSON(o.CommonDiscount)
	if err != nil {
		return nil, err
	}
	couponJSON, err := marshalJSON(o.Coupon)
	if err != nil {
		return nil, err
	}

	items := make([]OrderItemModel, 0, len(o.Items))
	for i := range o.Items {
		model, err := fromDomainOrderItem(&o.Items[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *model)
	}

	return &OrderModel{
		ID:                   o.ID,
		UserID:               o.UserID,
		State:                string(o.State),
		AddressJSON:          *addressJSON,
		DeliveryJSON:         *deliveryJSON,
		CommonDiscountJSON:   discountJSON,
		CouponJSON:           couponJSON,
		ItemsTotal:           o.ItemsTotal,
		CommonDiscountAmount: o.CommonDiscountAmount,
		OrderFinalAmount:     o.OrderFinalAmount,
		CouponDiscountAmount: o.CouponDiscountAmount,
		PayableAmount:        o.PayableAmount,
		Items:                items,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}, nil
}

func toDomainOrder(m *OrderModel) (*domain.Order, error) {
	address, err := unmarshalJSON[domain.AddressSnapshot](&m.AddressJSON)
	if err != nil {
		return nil, err
	}
	delivery, err := unmarshalJSON[domain.DeliverySnapshot](&m.DeliveryJSON)
	if err != nil {
		return nil, err
	}
	discount, err := unmarshalJSON[domain.CommonDiscountSnapshot](m.CommonDiscountJSON)
	if err != nil {
		return nil, err
	}
	coupon, err := unmarshalJSON[domain.CouponSnapshot](m.CouponJSON)
	if err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(m.Items))
	for i := range m.Items {
		item, err := toDomainOrderItem(&m.Items[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return &domain.Order{
		ID:                   m.ID,
		UserID:               m.UserID,
		State:                domain.OrderState(m.State),
		Address:              *address,
		Delivery:             *delivery,
		CommonDiscount:       discount,
		Coupon:               coupon,
		ItemsTotal:           m.ItemsTotal,
		CommonDiscountAmount: m.CommonDiscountAmount,
		OrderFinalAmount:     m.OrderFinalAmount,
		CouponDiscountAmount: m.CouponDiscountAmount,
		PayableAmount:        m.PayableAmount,
		Items:                items,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}, nil
}

func fromDomainOrderItem(item *domain.OrderItem) (*OrderItemModel, error) {
	productJSON, err := marshalJSON(&item.Product)
	if err != nil {
		return nil, err
	}
	colorJSON, err := marshalJSON(item.Color)
	if err != nil {
		return nil, err
	}
	guaranteeJSON, err := marshalJSON(item.Guarantee)
	if err != nil {
		return nil, err
	}
	saleJSON, err := marshalJSON(item.Sale)
	if err != nil {
		return nil, err
	}

	return &OrderItemModel{
		ID:             item.ID,
		OrderID:        item.OrderID,
		ProductJSON:    *productJSON,
		ColorJSON:      colorJSON,
		GuaranteeJSON:  guaranteeJSON,
		SaleJSON:       saleJSON,
		Qty:            item.Qty,
		UnitPrice:      item.UnitPrice,
		SaleDiscount:   item.SaleDiscount,
		FinalUnitPrice: item.FinalUnitPrice,
		FinalLineTotal: item.FinalLineTotal,
	}, nil
}

func toDomainOrderItem(m *OrderItemModel) (*domain.OrderItem, error) {
	product, err := unmarshalJSON[domain.ProductSnapshot](&m.ProductJSON)
	if err != nil {
		return nil, err
	}
	color, err := unmarshalJSON[domain.ColorSnapshot](m.ColorJSON)
	if err != nil {
		return nil, err
	}
	guarantee, err := unmarshalJSON[domain.GuaranteeSnapshot](m.GuaranteeJSON)
	if err != nil {
		return nil, err
	}
	sale, err := unmarshalJSON[domain.SaleSnapshot](m.SaleJSON)
	if err != nil {
		return nil, err
	}

	return &domain.OrderItem{
		ID:             m.ID,
		OrderID:        m.OrderID,
		Product:        *product,
		Color:          color,
		Guarantee:      guarantee,
		Sale:           sale,
		Qty:            m.Qty,
		UnitPrice:      m.UnitPrice,
		SaleDiscount:   m.SaleDiscount,
		FinalUnitPrice: m.FinalUnitPrice,
		FinalLineTotal: m.FinalLineTotal,
	}, nil
}

func fromDomainPayment(p *domain.Payment) (*PaymentModel, error) {
	raw, err := json.Marshal(p.Method)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payment method")
	}

	var authority *string
	if online, ok := p.Method.(domain.OnlineMethod); ok && online.GatewayAuthority != "" {
		authority = &online.GatewayAuthority
	}

	return &PaymentModel{
		ID:               p.ID,
		OrderID:          p.OrderID,
		Amount:           p.Amount,
		Status:           string(p.Status),
		MethodKind:       p.Method.MethodKind(),
		MethodJSON:       string(raw),
		GatewayAuthority: authority,
		PaidAt:           p.PaidAt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}, nil
}

func toDomainPayment(m *PaymentModel) (*domain.Payment, error) {
	method, err := unmarshalMethod(m.MethodKind, m.MethodJSON)
	if err != nil {
		return nil, err
	}
	return &domain.Payment{
		ID:        m.ID,
		OrderID:   m.OrderID,
		Amount:    m.Amount,
		Status:    domain.PaymentStatus(m.Status),
		Method:    method,
		PaidAt:    m.PaidAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// unmarshalMethod 按 kind 列还原支付方式的具体类型。
func unmarshalMethod(kind, raw string) (domain.PaymentMethod, error) {
	switch kind {
	case domain.MethodKindOnline:
		var m domain.OnlineMethod
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, errors.Wrap(err, "unmarshal online method")
		}
		return m, nil
	case domain.MethodKindOffline:
		var m domain.OfflineMethod
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, errors.Wrap(err, "unmarshal offline method")
		}
		return m, nil
	case domain.MethodKindCash:
		var m domain.CashMethod
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, errors.Wrap(err, "unmarshal cash method")
		}
		return m, nil
	default:
		return nil, errors.Errorf("unknown payment method kind: %s", kind)
	}
}
