// Package inventory carries a holder's weapons: the definition registry, the
// Arsenal that owns weapon instances and switches the one in hand, and ammo
// pickups routed by weapon type.
package inventory
