// internal/service/checkout/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"bazaar/internal/service/checkout/domain"
	promoinfra "bazaar/internal/service/promotion/infrastructure"
)

const mysqlDuplicateEntry = 1062

// GormSessionRepository 是 SessionRepository 的 GORM 实现。
type GormSessionRepository struct {
	db *gorm.DB
}

func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// Upsert 保存会话。并发创建同一用户的 OPEN 会话会撞 (user_id, open_flag)
// 唯一键，此时回退为读出既有行再按其主键更新。
func (r *GormSessionRepository) Upsert(ctx context.Context, session *domain.Session) error {
	return r.upsert(r.db.WithContext(ctx), session)
}

// UpsertConsumingCoupon 在一个事务里保存会话并核销单次券。
// 券核销是条件更新，已被占用时整个事务回滚，会话上不会留下券快照。
func (r *GormSessionRepository) UpsertConsumingCoupon(ctx context.Context, session *domain.Session, couponID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.upsert(tx, session); err != nil {
			return err
		}
		return promoinfra.ConsumeCouponTx(tx, couponID)
	})
}

func (r *GormSessionRepository) upsert(db *gorm.DB, session *domain.Session) error {
	model, err := fromDomainSession(session)
	if err != nil {
		return err
	}

	err = db.Save(model).Error
	if err == nil {
		return nil
	}

	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		var existing SessionModel
		ferr := db.Where("user_id = ? AND open_flag = 1", session.UserID).First(&existing).Error
		if ferr != nil {
			return errors.Wrap(err, "upsert checkout session")
		}
		session.ID = existing.ID
		session.CreatedAt = existing.CreatedAt
		model, merr := fromDomainSession(session)
		if merr != nil {
			return merr
		}
		return errors.Wrap(
			db.Save(model).Error,
			"update checkout session after duplicate key",
		)
	}

	return errors.Wrap(err, "upsert checkout session")
}

func (r *GormSessionRepository) FindOpenByUser(ctx context.Context, userID int64) (*domain.Session, error) {
	var model SessionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND open_flag = 1", userID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNoOpenSession
	}
	if err != nil {
		return nil, errors.Wrap(err, "find open checkout session")
	}
	return toDomainSession(&model)
}

// GormOrderRepository 是 OrderRepository 的 GORM 实现。
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Preload("Items").First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find order")
	}
	return toDomainOrder(&model)
}

func (r *GormOrderRepository) FindByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	var models []OrderModel
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}

	orders := make([]*domain.Order, 0, len(models))
	for i := range models {
		order, err := toDomainOrder(&models[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *GormOrderRepository) UpdateState(ctx context.Context, id string, state domain.OrderState) error {
	result := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ?", id).
		Update("state", string(state))
	if result.Error != nil {
		return errors.Wrap(result.Error, "update order state")
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// GormPaymentRepository 是 PaymentRepository 的 GORM 实现。
type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	var model PaymentModel
	err := r.db.WithContext(ctx).First(&model, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find payment by order")
	}
	return toDomainPayment(&model)
}

func (r *GormPaymentRepository) FindByAuthority(ctx context.Context, authority string) (*domain.Payment, error) {
	var model PaymentModel
	err := r.db.WithContext(ctx).First(&model, "gateway_authority = ?", authority).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find payment by authority")
	}
	return toDomainPayment(&model)
}

func (r *GormPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	model, err := fromDomainPayment(payment)
	if err != nil {
		return err
	}
	return errors.Wrap(
		r.db.WithContext(ctx).Save(model).Error,
		"update payment",
	)
}

// GormAddressDirectory 是收货地址目录的只读 GORM 实现。
type GormAddressDirectory struct {
	db *gorm.DB
}

func NewGormAddressDirectory(db *gorm.DB) *GormAddressDirectory {
	return &GormAddressDirectory{db: db}
}

func (r *GormAddressDirectory) FindAddress(ctx context.Context, addressID, userID int64) (*domain.Address, error) {
	var model AddressModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAddressNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find address")
	}
	return &domain.Address{
		ID:         model.ID,
		UserID:     model.UserID,
		Province:   model.Province,
		City:       model.City,
		PostalCode: model.PostalCode,
		Detail:     model.Detail,
		Recipient:  model.Recipient,
		Mobile:     model.Mobile,
	}, nil
}

// GormDeliveryDirectory 是配送方式目录的只读 GORM 实现。
type GormDeliveryDirectory struct {
	db *gorm.DB
}

func NewGormDeliveryDirectory(db *gorm.DB) *GormDeliveryDirectory {
	return &GormDeliveryDirectory{db: db}
}

func (r *GormDeliveryDirectory) FindDelivery(ctx context.Context, deliveryID int64) (*domain.Delivery, error) {
	var model DeliveryModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND status = 1", deliveryID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrDeliveryNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find delivery")
	}
	return &domain.Delivery{
		ID:     model.ID,
		Title:  model.Title,
		Amount: model.Amount,
		Status: model.Status,
	}, nil
}
