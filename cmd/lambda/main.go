package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"survey-relay-service/internal/app"
	"survey-relay-service/internal/config"
	"survey-relay-service/internal/logger"
)

// The router is built once per cold start and serves API Gateway proxy events.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.NewStructured(cfg.LogLevel, cfg.LogFormat)

	h, err := app.NewHandler(context.Background(), cfg, log)
	if err != nil {
		panic(err)
	}

	lambda.Start(httpadapter.New(h).ProxyWithContext)
}
