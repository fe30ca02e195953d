// Package paymentrepo persists payments and the log of gateway transactions.
package paymentrepo

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentDTO struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey"`
	OrderID          uuid.UUID        `gorm:"type:uuid;uniqueIndex;not null"`
	Amount           decimal.Decimal  `gorm:"type:numeric(12,2);not null"`
	Currency         string           `gorm:"type:char(3);not null"`
	MethodRef        string           `gorm:"type:varchar(128)"`
	Status           int              `gorm:"not null"`
	AuthorizedAmount decimal.Decimal  `gorm:"type:numeric(12,2);not null"`
	CapturedAmount   decimal.Decimal  `gorm:"type:numeric(12,2);not null"`
	RefundedAmount   decimal.Decimal  `gorm:"type:numeric(12,2);not null"`
	CreatedAt        time.Time        `gorm:"not null"`
	UpdatedAt        time.Time        `gorm:"not null"`
	Transactions     []TransactionDTO `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`
}

func (PaymentDTO) TableName() string {
	return "payments"
}

// TransactionDTO is one gateway call. Rows are inserted once.
type TransactionDTO struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PaymentID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind             int             `gorm:"not null"`
	Amount           decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Success          bool            `gorm:"not null"`
	GatewayReference string          `gorm:"type:varchar(128)"`
	IdempotencyKey   string          `gorm:"type:varchar(128);index"`
	Message          string          `gorm:"type:text"`
	CreatedAt        time.Time       `gorm:"not null"`
}

func (TransactionDTO) TableName() string {
	return "payment_transactions"
}

func fromDomain(p *payment.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:               p.ID().Bytes(),
		OrderID:          p.OrderID().Bytes(),
		Amount:           p.Amount(),
		Currency:         p.Currency(),
		MethodRef:        p.MethodRef(),
		Status:           int(p.Status()),
		AuthorizedAmount: p.AuthorizedAmount(),
		CapturedAmount:   p.CapturedAmount(),
		RefundedAmount:   p.RefundedAmount(),
		CreatedAt:        p.CreatedAt(),
		UpdatedAt:        p.UpdatedAt(),
		Transactions:     make([]TransactionDTO, 0, len(p.Transactions())),
	}
	for _, tx := range p.Transactions() {
		dto.Transactions = append(dto.Transactions, TransactionDTO{
			ID:               tx.ID.Bytes(),
			PaymentID:        dto.ID,
			Kind:             int(tx.Kind),
			Amount:           tx.Amount,
			Success:          tx.Success,
			GatewayReference: tx.GatewayReference,
			IdempotencyKey:   tx.IdempotencyKey,
			Message:          tx.Message,
			CreatedAt:        tx.CreatedAt,
		})
	}
	return dto
}

func toDomain(dto PaymentDTO) (*payment.Payment, error) {
	id, idErr := kernel.UUIDFromBytes(dto.ID[:])
	orderID, orderErr := kernel.UUIDFromBytes(dto.OrderID[:])
	if err := errors.Join(idErr, orderErr); err != nil {
		return nil, err
	}

	transactions := make([]payment.Transaction, 0, len(dto.Transactions))
	for _, txDTO := range dto.Transactions {
		txID, err := kernel.UUIDFromBytes(txDTO.ID[:])
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, payment.Transaction{
			ID:               txID,
			Kind:             payment.Kind(txDTO.Kind),
			Amount:           txDTO.Amount,
			Success:          txDTO.Success,
			GatewayReference: txDTO.GatewayReference,
			IdempotencyKey:   txDTO.IdempotencyKey,
			Message:          txDTO.Message,
			CreatedAt:        txDTO.CreatedAt,
		})
	}

	return payment.RestorePayment(payment.State{
		ID:               id,
		OrderID:          orderID,
		Amount:           dto.Amount,
		Currency:         dto.Currency,
		MethodRef:        dto.MethodRef,
		Status:           payment.Status(dto.Status),
		AuthorizedAmount: dto.AuthorizedAmount,
		CapturedAmount:   dto.CapturedAmount,
		RefundedAmount:   dto.RefundedAmount,
		Transactions:     transactions,
		CreatedAt:        dto.CreatedAt,
		UpdatedAt:        dto.UpdatedAt,
	})
}
