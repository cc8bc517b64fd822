// Package samples holds the built-in demo journals shown to signed-out
// visitors and appended to every merged view. The set is fixed, unowned, and
// immutable; its translations ship with the binary.
package samples

import (
	"time"

	"github.com/inkwell-app/inkwell/internal/model"
)

var base = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

var set = []model.Journal{
	{
		ID:        model.SampleIDPrefix + "1",
		Ref:       model.TierSample,
		Title:     "Welcome to Inkwell",
		Content:   "This is a sample journal. Sign in to write your own entries; they are saved to your account, or kept on this device whenever the connection is down.",
		Tags:      []string{"welcome", "getting-started"},
		CreatedAt: base.Add(48 * time.Hour),
		UpdatedAt: base.Add(48 * time.Hour),
	},
	{
		ID:        model.SampleIDPrefix + "2",
		Ref:       model.TierSample,
		Title:     "A morning by the lake",
		Content:   "Fog lifted off the water a little after seven. I wrote for an hour on the dock and watched two herons argue over the same patch of reeds.",
		Tags:      []string{"travel", "morning-pages"},
		CreatedAt: base.Add(24 * time.Hour),
		UpdatedAt: base.Add(24 * time.Hour),
	},
	{
		ID:        model.SampleIDPrefix + "3",
		Ref:       model.TierSample,
		Title:     "Reading notes",
		Content:   "Finished the chapter on tidal ecosystems. The part about keystone species maps surprisingly well onto how small habits hold a routine together.",
		Tags:      []string{"books", "notes"},
		CreatedAt: base,
		UpdatedAt: base,
	},
}

// translations is the bundled per-language table for the sample set. Missing
// languages fall back to the source text.
var translations = map[string]map[string]model.Translation{
	"es": {
		set[0].ID: {
			Title:   "Bienvenido a Inkwell",
			Content: "Este es un diario de ejemplo. Inicia sesión para escribir tus propias entradas; se guardan en tu cuenta, o se conservan en este dispositivo cuando no hay conexión.",
			Tags:    []string{"bienvenida", "primeros-pasos"},
		},
		set[1].ID: {
			Title:   "Una mañana junto al lago",
			Content: "La niebla se levantó del agua poco después de las siete. Escribí durante una hora en el muelle y observé a dos garzas discutir por el mismo carrizal.",
			Tags:    []string{"viajes", "páginas-matutinas"},
		},
		set[2].ID: {
			Title:   "Notas de lectura",
			Content: "Terminé el capítulo sobre ecosistemas de marea. La parte sobre especies clave se parece sorprendentemente a cómo los pequeños hábitos sostienen una rutina.",
			Tags:    []string{"libros", "notas"},
		},
	},
	"fr": {
		set[0].ID: {
			Title:   "Bienvenue sur Inkwell",
			Content: "Ceci est un journal d'exemple. Connectez-vous pour écrire vos propres entrées ; elles sont enregistrées sur votre compte, ou conservées sur cet appareil quand la connexion est coupée.",
			Tags:    []string{"bienvenue", "premiers-pas"},
		},
		set[1].ID: {
			Title:   "Un matin au bord du lac",
			Content: "La brume s'est levée de l'eau peu après sept heures. J'ai écrit une heure sur le ponton en regardant deux hérons se disputer la même roselière.",
			Tags:    []string{"voyage", "pages-du-matin"},
		},
		set[2].ID: {
			Title:   "Notes de lecture",
			Content: "Fini le chapitre sur les écosystèmes de marée. Le passage sur les espèces clés ressemble étonnamment à la façon dont les petites habitudes tiennent une routine.",
			Tags:    []string{"livres", "notes"},
		},
	},
}

// Set returns the sample journals in their fixed built-in order. Callers get
// fresh copies; the set itself is never mutated.
func Set() []model.Journal {
	out := make([]model.Journal, 0, len(set))
	for _, j := range set {
		out = append(out, j.Clone())
	}
	return out
}

// Get returns a copy of the sample with the given id.
func Get(id string) (model.Journal, bool) {
	for _, j := range set {
		if j.ID == id {
			return j.Clone(), true
		}
	}
	return model.Journal{}, false
}

// IsSample reports whether id belongs to the sample namespace.
func IsSample(id string) bool {
	return model.TierForID(id) == model.TierSample
}

// Translation looks up the bundled table. The bool reports whether lang has a
// bundled rendering for this id.
func Translation(id, lang string) (model.Translation, bool) {
	byID, ok := translations[lang]
	if !ok {
		return model.Translation{}, false
	}
	tr, ok := byID[id]
	return tr, ok
}
