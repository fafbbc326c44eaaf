// Package olc implements online creation: line-driven menu editors that let
// builders change world entities from inside the game.
//
// A connection holds at most one root Session. Editors may push child
// sessions for sub-objects such as exits or long text; the Router always
// feeds input to the deepest incomplete session and folds finished children
// back into their parent. Only a finished root session reaches the
// Committer, which writes the working value into the world.
package olc
