package db

import (
	"time"

	"gorm.io/gorm"
)

// 财务流水方向
const (
	TransactionTypeIncome  = "income"
	TransactionTypeExpense = "expense"
)

// 财务分类
const (
	TransactionCategoryLivestockSale = "livestock_sale"
	TransactionCategoryProduceSale   = "produce_sale"
	TransactionCategoryFeed          = "feed"
	TransactionCategoryVeterinary    = "veterinary"
	TransactionCategoryEquipment     = "equipment"
	TransactionCategoryLabor         = "labor"
	TransactionCategoryUtilities     = "utilities"
	TransactionCategoryOther         = "other"
)

// Transaction 定义了财务流水模型
// Amount 恒为正数，方向由 TransactionType 区分
// AnimalID 可选：出售某头牲畜、为某头牲畜看病等与个体相关的收支填写
type Transaction struct {
	gorm.Model
	TransactionType string `gorm:"size:10;index;not null"`
	Category        string `gorm:"size:30;index;not null"`
	Amount          float64
	OccurredOn      time.Time `gorm:"index"`
	Counterparty    string    `gorm:"size:200"`
	AnimalID        *uint     `gorm:"index"`
	Animal          *Animal
	Notes           string `gorm:"type:text"`
}

// TransactionCategories 返回全部财务分类常量。
func TransactionCategories() []string {
	return []string{
		TransactionCategoryLivestockSale,
		TransactionCategoryProduceSale,
		TransactionCategoryFeed,
		TransactionCategoryVeterinary,
		TransactionCategoryEquipment,
		TransactionCategoryLabor,
		TransactionCategoryUtilities,
		TransactionCategoryOther,
	}
}

// IsValidTransactionCategory 判断财务分类是否受支持。
func IsValidTransactionCategory(category string) bool {
	for _, candidate := range TransactionCategories() {
		if candidate == category {
			return true
		}
	}
	return false
}
