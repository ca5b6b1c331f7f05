// Package service provides the service registry for tool providers.
//
// The registry maintains a catalog of service providers and routes tool
// calls ("service.tool") to the provider that owns the service prefix.
//
// Components:
//   - Registry: Central service catalog
//   - Provider: Interface for service implementations
//
// Features:
//   - Thread-safe service registration
//   - Category-based filtering
//   - Tool execution with context passing
//   - Service statistics
//
// Example Usage:
//
//	registry := service.NewRegistry()
//	registry.Register(process.NewProvider(engine))
//	result, err := registry.Execute(ctx, "process.launch", params, appCtx)
package service
