package docker_test

import (
	"testing"

	"github.com/sarth-shah20/berth/internal/docker"
)

func TestContainerName(t *testing.T) {
	if got, want := docker.ContainerName("shop", "db"), "berth-shop-db"; got != want {
		t.Errorf("ContainerName = %q, want %q", got, want)
	}
}

func TestNetworkName(t *testing.T) {
	if got, want := docker.NetworkName("shop"), "berth-shop"; got != want {
		t.Errorf("NetworkName = %q, want %q", got, want)
	}
}
