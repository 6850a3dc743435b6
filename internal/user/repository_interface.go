package user

import "context"

type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	DeviceToken(ctx context.Context, id string) (string, error)
	UpdateDeviceToken(ctx context.Context, id, token string) error
}
