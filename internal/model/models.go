package model

// All lists every table for AutoMigrate.
func All() []interface{} {
	return []interface{}{&Seller{}, &Shop{}, &Category{}, &Product{}}
}
