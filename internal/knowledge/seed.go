// ABOUTME: Starter categories and questions for an empty knowledge base
// ABOUTME: Seeding is skipped once any category exists

package knowledge

import (
	"context"
	"database/sql"
	"fmt"
)

type seedQuestion struct {
	question   string
	answer     string
	keywords   string
	difficulty int
}

type seedCategory struct {
	CategoryInput
	questions []seedQuestion
}

var seedData = []seedCategory{
	{
		CategoryInput{"Matemáticas", "Preguntas sobre matemáticas, álgebra, geometría, etc.", "fas fa-calculator", "#3B82F6"},
		[]seedQuestion{
			{"¿Cuál es la fórmula del área de un círculo?",
				"La fórmula del área de un círculo es A = πr², donde r es el radio del círculo.",
				"área, círculo, fórmula, radio, pi", 1},
			{"¿Qué es el teorema de Pitágoras?",
				"El teorema de Pitágoras establece que en un triángulo rectángulo, el cuadrado de la hipotenusa es igual a la suma de los cuadrados de los catetos: a² + b² = c².",
				"teorema, pitágoras, triángulo, rectángulo, hipotenusa", 2},
			{"¿Cómo se resuelve una ecuación cuadrática?",
				"Una ecuación cuadrática se resuelve usando la fórmula cuadrática: x = (-b ± √(b² - 4ac)) / 2a, donde ax² + bx + c = 0.",
				"ecuación, cuadrática, fórmula, resolver", 3},
		},
	},
	{
		CategoryInput{"Historia", "Preguntas sobre historia mundial, eventos históricos, etc.", "fas fa-landmark", "#EF4444"},
		[]seedQuestion{
			{"¿Cuándo comenzó la Segunda Guerra Mundial?",
				"La Segunda Guerra Mundial comenzó el 1 de septiembre de 1939 cuando Alemania invadió Polonia.",
				"segunda guerra mundial, alemania, polonia, 1939", 1},
			{"¿Quién fue Napoleón Bonaparte?",
				"Napoleón Bonaparte fue un líder político y militar francés que se convirtió en emperador de Francia y conquistó gran parte de Europa a principios del siglo XIX.",
				"napoleón, bonaparte, francia, emperador, conquista", 2},
		},
	},
	{
		CategoryInput{"Ciencia", "Preguntas sobre física, química, biología, etc.", "fas fa-flask", "#10B981"},
		[]seedQuestion{
			{"¿Qué es la fotosíntesis?",
				"La fotosíntesis es el proceso mediante el cual las plantas convierten la luz solar, dióxido de carbono y agua en glucosa y oxígeno.",
				"fotosíntesis, plantas, luz solar, glucosa, oxígeno", 1},
			{"¿Cuál es la estructura del ADN?",
				"El ADN tiene una estructura de doble hélice, formada por dos cadenas de nucleótidos que se enrollan entre sí, con bases nitrogenadas que se aparean específicamente.",
				"adn, doble hélice, nucleótidos, bases nitrogenadas", 3},
		},
	},
	{
		CategoryInput{"Literatura", "Preguntas sobre libros, autores, géneros literarios, etc.", "fas fa-book", "#8B5CF6"},
		[]seedQuestion{
			{"¿Quién escribió \"Don Quijote\"?",
				"\"Don Quijote\" fue escrito por Miguel de Cervantes Saavedra y se publicó en dos partes en 1605 y 1615.",
				"don quijote, cervantes, novela, literatura española", 1},
			{"¿Qué es la poesía épica?",
				"La poesía épica es un género literario que narra las hazañas de héroes legendarios o históricos, generalmente en verso y con un tono elevado.",
				"poesía, épica, héroes, verso, narrativa", 2},
		},
	},
	{
		CategoryInput{"Tecnología", "Preguntas sobre programación, computadoras, internet, etc.", "fas fa-laptop-code", "#F59E0B"},
		[]seedQuestion{
			{"¿Qué es HTML?",
				"HTML (HyperText Markup Language) es el lenguaje de marcado estándar para crear páginas web. Define la estructura y el contenido de una página.",
				"html, lenguaje, marcado, web, páginas", 1},
			{"¿Qué es un algoritmo?",
				"Un algoritmo es un conjunto de instrucciones paso a paso diseñadas para realizar una tarea específica o resolver un problema.",
				"algoritmo, instrucciones, tarea, problema, programación", 2},
			{"¿Qué es la inteligencia artificial?",
				"La inteligencia artificial es la simulación de procesos de inteligencia humana por parte de máquinas, especialmente sistemas informáticos.",
				"inteligencia artificial, ia, máquinas, simulación, procesos", 2},
		},
	},
}

// Seed fills an empty knowledge base with starter content. It reports
// whether anything was written.
func (s *Store) Seed(ctx context.Context) (bool, error) {
	n, err := s.count(ctx, `SELECT COUNT(*) FROM categories`)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	now := s.timestamp()
	questions := 0
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, sc := range seedData {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO categories (name, description, icon, color) VALUES (?, ?, ?, ?)`,
				sc.Name, sc.Description, sc.Icon, sc.Color)
			if err != nil {
				return fmt.Errorf("seeding category %q: %w", sc.Name, err)
			}
			categoryID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("reading category id: %w", err)
			}
			for _, q := range sc.questions {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO questions (category_id, question_text, answer_text, keywords, difficulty, created_at)
					VALUES (?, ?, ?, ?, ?, ?)`,
					categoryID, q.question, q.answer, NormalizeKeywords(q.keywords), q.difficulty, now); err != nil {
					return fmt.Errorf("seeding question %q: %w", q.question, err)
				}
				questions++
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("knowledge base seeded", "categories", len(seedData), "questions", questions)
	return true, nil
}
