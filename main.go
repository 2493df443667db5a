package main

import (
	"context"
	"time"

	"github.com/workpulse/workpulse/internal/app"
)

// @title           WorkPulse API
// @version         1.0
// @description     WorkPulse provides email OTP verification, password reset and login APIs.
// @contact.name    WorkPulse Support
// @contact.email   support@workpulse.io
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
func main() {
	workpulse := app.New()
	<-workpulse.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	workpulse.Stop(ctx)
}
