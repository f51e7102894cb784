package game

import (
	"errors"

	"wildcraft/internal/craft"
	"wildcraft/internal/inventory"
	"wildcraft/internal/player"
	"wildcraft/internal/world"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInput     = errors.New("invalid input")

	ErrPlayerNotFound = player.ErrNotFound
	ErrPlayerExists   = player.ErrExists
	ErrInvalidName    = player.ErrInvalidName

	ErrUnknownRecipe    = errors.New("unknown recipe")
	ErrRecipeLocked     = errors.New("recipe locked")
	ErrInvalidQuantity  = craft.ErrInvalidQuantity
	ErrTierTooLow       = errors.New("crafting tier too low")
	ErrStationLocked    = errors.New("station locked")
	ErrStationNotPlaced = errors.New("station not placed in your biome")
	ErrStationTooFar    = errors.New("too far from station")
	ErrInsufficient     = inventory.ErrInsufficientQuantity

	ErrNodeNotFound  = world.ErrNodeNotFound
	ErrNodeDepleted  = errors.New("loot node is depleted")
	ErrWrongBiome    = errors.New("loot node is not in your biome")
	ErrTooFar        = errors.New("too far from loot node")
	ErrStationNearby = errors.New("a workbench is already placed nearby")
)

// IsPrecondition reports errors caused by game state rather than bad input.
func IsPrecondition(err error) bool {
	for _, target := range []error{
		ErrPlayerExists, ErrRecipeLocked, ErrTierTooLow, ErrStationLocked,
		ErrStationNotPlaced, ErrStationTooFar, ErrInsufficient, ErrNodeDepleted,
		ErrWrongBiome, ErrTooFar, ErrStationNearby,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports missing players, recipes, nodes or stations.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlayerNotFound) || errors.Is(err, ErrUnknownRecipe) ||
		errors.Is(err, ErrNodeNotFound) || errors.Is(err, craft.ErrJobNotFound)
}

// IsValidation reports malformed requests.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidName) || errors.Is(err, inventory.ErrInvalidKind) ||
		errors.Is(err, inventory.ErrInvalidDefID) || errors.Is(err, world.ErrInvalidNode) ||
		errors.Is(err, world.ErrInvalidStation) || errors.Is(err, inventory.ErrQuantityTooLarge)
}
