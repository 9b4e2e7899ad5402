package main

import (
	"go.uber.org/fx"

	"github.com/foodya/foodya-backend/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
