package service

import (
	"context"
	"errors"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/server"
)

type RouteGenerator interface {
	GenerateRoutes(ctx context.Context, start, end datastructure.Coordinate,
		mode datastructure.TransportMode) (*datastructure.RouteSet, error)
}

type NavigationService struct {
	routes RouteGenerator
}

func NewNavigationService(routes RouteGenerator) *NavigationService {
	return &NavigationService{routes: routes}
}

// FloodAwareRoutes rute safe, balanced, fastest antara src dan dst untuk mode tertentu.
func (s *NavigationService) FloodAwareRoutes(ctx context.Context, srcLat, srcLon, dstLat, dstLon float64,
	mode string) (*datastructure.RouteSet, error) {
	transportMode, err := datastructure.TransportModeFromString(mode)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrBadParamInput, "mode must be one of car, motorcycle, walking")
	}

	rs, err := s.routes.GenerateRoutes(ctx, datastructure.NewCoordinate(srcLat, srcLon),
		datastructure.NewCoordinate(dstLat, dstLon), transportMode)
	if err != nil {
		var serr *server.Error
		if errors.As(err, &serr) {
			return nil, err
		}
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
	}
	return rs, nil
}
