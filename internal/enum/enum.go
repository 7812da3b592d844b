package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusKitchen = "kitchen"
	OrderStatusCooked  = "cooked"
	OrderStatusServed  = "served" // history records only
)

// ── Auth ──

const (
	RoleAdmin = "ADMIN"
)

// ── Configurable labels (no DB constraint) ──

// MasterCategories is the full set of categories a shop can enable.
var MasterCategories = []string{
	"อาหารจานเดียว", "ก๋วยเตี๋ยว", "กับข้าว", "ท็อปปิ้ง",
	"ส้มตำ/ยำ", "สเต็ก", "เครื่องดื่ม", "น้ำปั่น", "กาแฟ/คาเฟ่", "ของหวาน",
}

// DefaultCategories is what a fresh shop starts with.
var DefaultCategories = []string{"อาหารจานเดียว", "ก๋วยเตี๋ยว", "เครื่องดื่ม"}

// IsMasterCategory reports whether a category is in the master set.
func IsMasterCategory(category string) bool {
	for _, c := range MasterCategories {
		if c == category {
			return true
		}
	}
	return false
}
