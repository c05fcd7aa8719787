//go:build !gl

package main

import (
	"context"
	"errors"

	"github.com/taigrr/plyview/pkg/config"
)

func runGL(context.Context, config.Config) error {
	return errors.New("the gl surface is not compiled in; rebuild with -tags gl")
}
