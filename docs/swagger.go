// Package docs Building Discovery Map API.
//
// Сервис интерактивной карты зданий: проекция разнородных пакетов записей
// в источник карты, поиск зданий рядом с пользователем, клиентская
// кластеризация и очередь действий из подсказок карты.
//
//	Schemes: http, https
//	BasePath: /
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package docs
