package model

import (
	"encoding/json"
	"strconv"
)

// CiphertextMap — типизированная карта «участник → KEM-шифртекст».
// Отсутствие ключа — не ошибка: для этого получателя шифртекст ещё не
// опубликован (например, на момент шара у него не было публичного ключа).
type CiphertextMap map[int64]string

// EncodeCiphertexts сериализует карту в JSON с строковыми ключами,
// как её хранит колонка kem_ciphertexts.
func EncodeCiphertexts(m CiphertextMap) (string, error) {
	raw := make(map[string]string, len(m))
	for uid, ct := range m {
		raw[strconv.FormatInt(uid, 10)] = ct
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeCiphertexts разбирает колонку обратно в типизированную карту.
// Ключи, не являющиеся числами, молча пропускаются (наследие свободной схемы).
func DecodeCiphertexts(s string) (CiphertextMap, error) {
	raw := make(map[string]string)
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, err
	}
	m := make(CiphertextMap, len(raw))
	for k, ct := range raw {
		uid, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		m[uid] = ct
	}
	return m, nil
}

// CiphertextFor — шифртекст конкретного участника; nil, если не опубликован.
func (g *GroupFileAccess) CiphertextFor(userID int64) *string {
	m, err := DecodeCiphertexts(g.KEMCiphertexts)
	if err != nil {
		return nil
	}
	if ct, ok := m[userID]; ok {
		return &ct
	}
	return nil
}
