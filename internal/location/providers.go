package location

import "context"

// GrantedPermission is a PermissionProvider for deployments where the hosting
// shell has already secured the location permission.
type GrantedPermission struct{}

func (GrantedPermission) Request(ctx context.Context) (bool, error) { return true, nil }

// StaticPosition reports a fixed position, used for kiosk-style installs
// where the device sits at a known site. Device integrations supply their own
// PositionProvider instead.
type StaticPosition struct {
	Latitude  float64
	Longitude float64
}

func (p StaticPosition) Position(ctx context.Context) (float64, float64, error) {
	return p.Latitude, p.Longitude, nil
}
