// Package model はドメインモデルを定義する。
package model

// User はサービス利用ユーザーを表す。
// Profileを0または1つ所有し（1:1）、Postを0以上所有する（1:N）。
// 購読エッジでは購読者（subscriber）と著者（author）の両方の立場を取りうる。
type User struct {
	ID      string
	Name    string
	Balance float64
}

// NewUser はユーザー作成・更新の入力を表す。
type NewUser struct {
	Name    string
	Balance float64
}
