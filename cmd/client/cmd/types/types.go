package types

// ContextKey — тип ключей контекста команд
type ContextKey string

// ClientAppKey — ключ, под которым в контексте команд лежит *client.App
const ClientAppKey ContextKey = "app"
