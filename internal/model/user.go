// Package model はドメインモデルとエラー分類を定義する。
package model

// NameMaxLength はユーザー名の最大文字数（Unicodeコードポイント数）。
const NameMaxLength = 100

// User はユーザーエンティティを表す。
// Facade境界を越えた時点でIDはUUID形式、Nameは1〜100文字であることが保証される。
// Repository・Serviceは再検証しない。
type User struct {
	ID   string
	Name string
}

// UpdateCommand はユーザーの部分更新リクエストを表す。
// 変更可能なのはNameのみで、IDは不変。
type UpdateCommand struct {
	Name string
}
