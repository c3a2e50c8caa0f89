package gamepiece

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestGamePiece(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "GamePiece Suite")
}
