package orders

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"strings"
)

type ZoneInput struct {
	Code         string `json:"code"`
	DeliveryTime *int   `json:"deliveryTime"`
	Unit         string `json:"unit"`
	IsCOD        *bool  `json:"isCOD"`
	IsActive     *bool  `json:"isActive"`
}

// ZoneCheck is the public serviceability answer for a postal code.
type ZoneCheck struct {
	IsServiceable bool   `json:"isServiceable"`
	DeliveryTime  int    `json:"deliveryTime,omitempty"`
	Unit          string `json:"unit,omitempty"`
	IsCOD         bool   `json:"isCOD,omitempty"`
	Message       string `json:"message"`
}

type Zones struct {
	Store ZoneStore
}

func (z *Zones) Create(ctx context.Context, in ZoneInput) (*DeliveryZone, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || in.DeliveryTime == nil || in.Unit == "" {
		return nil, validation("Please provide all required fields")
	}
	if !ValidDeliveryUnit(in.Unit) {
		return nil, validation("Invalid unit: %s", in.Unit)
	}
	zone := &DeliveryZone{Code: code, DeliveryTime: *in.DeliveryTime, Unit: in.Unit, IsCOD: true, IsActive: true}
	if in.IsCOD != nil {
		zone.IsCOD = *in.IsCOD
	}
	if in.IsActive != nil {
		zone.IsActive = *in.IsActive
	}
	if err := z.Store.CreateZone(ctx, zone); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, validation("PIN Code already exists")
		}
		return nil, err
	}
	return zone, nil
}

// Update applies the fields present in in.
func (z *Zones) Update(ctx context.Context, id uuid.UUID, in ZoneInput) (*DeliveryZone, error) {
	zone, err := z.Store.GetZone(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("PIN Code not found")
	}
	if err != nil {
		return nil, err
	}
	if c := strings.TrimSpace(in.Code); c != "" {
		zone.Code = c
	}
	if in.DeliveryTime != nil {
		zone.DeliveryTime = *in.DeliveryTime
	}
	if in.Unit != "" {
		if !ValidDeliveryUnit(in.Unit) {
			return nil, validation("Invalid unit: %s", in.Unit)
		}
		zone.Unit = in.Unit
	}
	if in.IsCOD != nil {
		zone.IsCOD = *in.IsCOD
	}
	if in.IsActive != nil {
		zone.IsActive = *in.IsActive
	}
	if err := z.Store.UpdateZone(ctx, zone); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, validation("PIN Code already exists")
		}
		return nil, err
	}
	return zone, nil
}

func (z *Zones) Delete(ctx context.Context, id uuid.UUID) error {
	err := z.Store.DeleteZone(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return notFound("PIN Code not found")
	}
	return err
}

func (z *Zones) List(ctx context.Context) ([]DeliveryZone, error) {
	return z.Store.ListZones(ctx)
}

func (z *Zones) Check(ctx context.Context, code string) (*ZoneCheck, error) {
	zone, err := z.Store.ZoneByCode(ctx, strings.TrimSpace(code))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if zone == nil || !zone.IsActive {
		return &ZoneCheck{Message: "Not deliverable to this location"}, nil
	}
	return &ZoneCheck{
		IsServiceable: true,
		DeliveryTime:  zone.DeliveryTime,
		Unit:          zone.Unit,
		IsCOD:         zone.IsCOD,
		Message:       fmt.Sprintf("Delivered in %d %s", zone.DeliveryTime, zone.Unit),
	}, nil
}
