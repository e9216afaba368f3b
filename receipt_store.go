package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var ErrReceiptNotFound = errors.New("receipt not found")

// ReceiptRecord is an issued receipt signature. Key material is never stored.
type ReceiptRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RequestID   string    `gorm:"column:request_id;type:varchar(36);not null;uniqueIndex" json:"request_id"`
	Signer      string    `gorm:"column:signer;type:varchar(42);not null;index" json:"signer"`
	MessageHash string    `gorm:"column:message_hash;type:char(66);not null" json:"message_hash"`
	Signature   string    `gorm:"column:signature;type:char(130);not null;index" json:"signature"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table name for the ReceiptRecord model.
func (ReceiptRecord) TableName() string {
	return "receipts"
}

// ReceiptRecorder stores and lists issued receipts.
type ReceiptRecorder interface {
	Store(ctx context.Context, record *ReceiptRecord) error
	FindBySignature(ctx context.Context, signature string) (*ReceiptRecord, error)
	List(ctx context.Context, signer string, options *ListOptions) ([]ReceiptRecord, error)
}

var _ ReceiptRecorder = &ReceiptStore{}

type ReceiptStore struct {
	db *gorm.DB
}

// NewReceiptStore creates a new ReceiptStore instance.
func NewReceiptStore(db *gorm.DB) *ReceiptStore {
	return &ReceiptStore{db: db}
}

// Store saves a new receipt record. ID and CreatedAt are filled in on success.
func (s *ReceiptStore) Store(ctx context.Context, record *ReceiptRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return errors.Wrap(err, "failed to store receipt")
	}
	return nil
}

// FindBySignature returns the receipt issued with the given encoded signature.
func (s *ReceiptStore) FindBySignature(ctx context.Context, signature string) (*ReceiptRecord, error) {
	var record ReceiptRecord
	err := s.db.WithContext(ctx).Where("signature = ?", signature).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find receipt")
	}
	return &record, nil
}

// List returns the receipts issued by signer, newest first unless options say otherwise.
func (s *ReceiptStore) List(ctx context.Context, signer string, options *ListOptions) ([]ReceiptRecord, error) {
	query := applyListOptions(s.db.WithContext(ctx), "id", SortTypeDescending, options)

	var records []ReceiptRecord
	if err := query.Where("signer = ?", signer).Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list receipts")
	}
	return records, nil
}
