package model

import "time"

// 注文ステータス更新など。
type AuditAction string

const (
	//配送ステータスを更新した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	//返金を承認した操作。
	AuditActionApproveRefund AuditAction = "APPROVE_REFUND"
	//代引きの入金を確定した操作。
	AuditActionSettleCOD AuditAction = "SETTLE_COD"
	//キャンセル審査を手動で進めた操作。
	AuditActionProcessCancellation AuditAction = "PROCESS_CANCELLATION"
	//未決済注文を掃除した操作。
	AuditActionSweepUnpaid AuditAction = "SWEEP_UNPAID"
)

// 何に対する操作か
type AuditResourceType string

const (
	//注文に対する操作。
	AuditResourceOrder AuditResourceType = "order"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	//IDは監査ログの主キー
	ID string `gorm:"type:varchar(64);primaryKey" bson:"_id" json:"id"`

	//操作した管理者（セッションのemail）。
	Actor string `gorm:"type:varchar(255);not null;index" bson:"actor" json:"actor"`

	//Actionは操作の種類（UPDATE_ORDER_STATUS / APPROVE_REFUND など）。
	Action AuditAction `gorm:"type:varchar(50);not null;index" bson:"action" json:"action"`

	//対象の種類。
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" bson:"resourceType" json:"resource_type"`

	//対象のID。
	ResourceID string `gorm:"type:varchar(64);not null;index" bson:"resourceId" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" bson:"before" json:"before_json"`

	//JSON文字列で保存する。
	AfterJSON string `gorm:"type:text" bson:"after" json:"after_json"`

	//作成時刻
	CreatedAt time.Time `gorm:"not null;index" bson:"createdAt" json:"created_at"`
}
