package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	client := NewClient("https://gateway.test", "key_id", "test_secret")

	orderID := "order_MkWc2Bs8q1Xyz"
	paymentID := "pay_NlQr7Dt9w2Abc"
	valid := Signature("test_secret", orderID, paymentID)

	assert.True(t, client.VerifySignature(orderID, paymentID, valid))
}

func TestVerifySignature_Mutations(t *testing.T) {
	client := NewClient("https://gateway.test", "key_id", "test_secret")

	orderID := "order_MkWc2Bs8q1Xyz"
	paymentID := "pay_NlQr7Dt9w2Abc"
	valid := Signature("test_secret", orderID, paymentID)

	// Подмена одного символа подписи
	mutated := []byte(valid)
	if mutated[0] == 'a' {
		mutated[0] = 'b'
	} else {
		mutated[0] = 'a'
	}
	assert.False(t, client.VerifySignature(orderID, paymentID, string(mutated)))

	// Подпись от другого платежа
	other := Signature("test_secret", orderID, "pay_other")
	assert.False(t, client.VerifySignature(orderID, paymentID, other))

	// Подпись на другом секрете
	wrongSecret := Signature("wrong_secret", orderID, paymentID)
	assert.False(t, client.VerifySignature(orderID, paymentID, wrongSecret))

	// Пустая подпись
	assert.False(t, client.VerifySignature(orderID, paymentID, ""))
}

func TestSignature_Deterministic(t *testing.T) {
	a := Signature("secret", "order_1", "pay_1")
	b := Signature("secret", "order_1", "pay_1")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	// Разделитель исключает склейку идентификаторов
	assert.NotEqual(t, Signature("secret", "order_1", "2pay"), Signature("secret", "order_12", "pay"))
}
