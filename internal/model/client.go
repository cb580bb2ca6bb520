package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Статус клиента в агентстве.
type ClientStatus string

const (
	ClientStatusCurrent    ClientStatus = "current"
	ClientStatusPending    ClientStatus = "pending"
	ClientStatusInactive   ClientStatus = "inactive"
	ClientStatusTerminated ClientStatus = "terminated"
	ClientStatusWaitlist   ClientStatus = "waitlist"
	ClientStatusScreener   ClientStatus = "screener"
	ClientStatusPacket     ClientStatus = "packet"
)

// Источник записи клиента.
const ClientSourceBulkImport = "bulk_import"

// Client — клиент агентства. Персональных данных здесь нет:
// IdentifierCode — шестисимвольный деидентифицированный код,
// уникальный в пределах агентства.
type Client struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	AgencyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_client_agency_code"`

	IdentifierCode string `gorm:"type:varchar(6);not null;uniqueIndex:idx_client_agency_code"`

	SchoolID   *uuid.UUID `gorm:"type:uuid;index"`
	ProviderID *uuid.UUID `gorm:"type:uuid;index"`
	Weekday    *Weekday   `gorm:"type:varchar(16)"`

	Status   ClientStatus `gorm:"type:varchar(32);not null;default:'pending';index"`
	Archived bool         `gorm:"not null;default:false"`

	Source          string     `gorm:"type:varchar(32)"`
	CreatedByUserID *uuid.UUID `gorm:"type:uuid;index"`

	ReferralDate        *datatypes.Date `gorm:"type:date"`
	PaperworkReceivedAt *time.Time      `gorm:"type:timestamp with time zone"`

	InternalNotes string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Agency   *Agency   `gorm:"foreignKey:AgencyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	School   *School   `gorm:"foreignKey:SchoolID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Provider *Provider `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// ConsumesSlot — единственный предикат потребления слота. Все решения
// о take/release в леджере обязаны считаться ровно по нему: провайдер,
// площадка и день назначены, статус current, клиент не в архиве.
func (c *Client) ConsumesSlot() bool {
	return c != nil &&
		c.ProviderID != nil &&
		c.SchoolID != nil &&
		c.Weekday != nil &&
		c.Status == ClientStatusCurrent &&
		!c.Archived
}

// SameAssignment сообщает, совпадает ли тройка (провайдер, площадка, день)
// с переданной. nil-поля считаются несовпадением.
func (c *Client) SameAssignment(providerID, schoolID uuid.UUID, day Weekday) bool {
	return c != nil &&
		c.ProviderID != nil && *c.ProviderID == providerID &&
		c.SchoolID != nil && *c.SchoolID == schoolID &&
		c.Weekday != nil && *c.Weekday == day
}
