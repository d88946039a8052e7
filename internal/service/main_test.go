package service

import (
	"testing"

	"github.com/tbrumbaugh5396/music-visualizer/internal/testutil"
)

func TestMain(m *testing.M) {
	testutil.VerifyTestMain(m)
}
