package main

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/putraaxzy/be-artemis/internal/models"
	"github.com/putraaxzy/be-artemis/pkg/database"
)

func main() {
	db, err := database.NewDatabase("data/artemis.db")
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Enrollment catalog
	majors := []models.Major{
		{Class: "X", Name: "RPL"},
		{Class: "X", Name: "TKJ"},
		{Class: "X", Name: "MM"},
		{Class: "XI", Name: "RPL"},
		{Class: "XI", Name: "TKJ"},
		{Class: "XI", Name: "MM"},
		{Class: "XII", Name: "RPL"},
		{Class: "XII", Name: "TKJ"},
	}
	for _, major := range majors {
		if err := db.DB.FirstOrCreate(&models.Major{}, major).Error; err != nil {
			log.Printf("Failed to create major %s %s: %v", major.Class, major.Name, err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	teacher := models.User{
		Username: "pak_budi",
		Name:     "Budi Santoso",
		Phone:    "081234567890",
		Password: string(hash),
		Role:     models.RoleTeacher,
	}
	if err := db.DB.Where("username = ?", teacher.Username).FirstOrCreate(&teacher).Error; err != nil {
		log.Fatalf("Failed to create teacher: %v", err)
	}

	students := []models.User{
		{Username: "putra_rpl", Name: "Putra Ramadhan", Phone: "081111111111", Class: "XI", Major: "RPL"},
		{Username: "sari_rpl", Name: "Sari Dewi", Phone: "082222222222", Class: "XI", Major: "RPL"},
		{Username: "agus_tkj", Name: "Agus Wijaya", Phone: "083333333333", Class: "XI", Major: "TKJ"},
		{Username: "rina_mm", Name: "Rina Lestari", Phone: "084444444444", Class: "X", Major: "MM"},
	}
	for i := range students {
		students[i].Password = string(hash)
		students[i].Role = models.RoleStudent
		if err := db.DB.Where("username = ?", students[i].Username).FirstOrCreate(&students[i]).Error; err != nil {
			log.Printf("Failed to create student %s: %v", students[i].Username, err)
		}
	}

	// One class-targeted task fanned out to XI RPL
	deadline := time.Now().Add(7 * 24 * time.Hour)
	task := models.Task{
		TeacherID: teacher.ID,
		Title:     "Membuat REST API Sederhana",
		Description: "Buat REST API CRUD sederhana dengan bahasa pemrograman pilihan kalian. " +
			"Kumpulkan link repository GitHub.",
		TargetMode: models.TargetModeClass,
		TargetSpec: models.TargetSpec{
			Classes: []models.ClassTarget{{Class: "XI", Major: "RPL"}},
		},
		SubmissionMode: models.SubmissionModeLink,
		Deadline:       &deadline,
		ShowScore:      true,
	}
	if err := db.DB.Where("title = ?", task.Title).FirstOrCreate(&task).Error; err != nil {
		log.Fatalf("Failed to create task: %v", err)
	}

	assigned := 0
	for _, student := range students {
		if !task.TargetSpec.MatchesClassMajor(student.Class, student.Major) {
			continue
		}
		assignment := models.Assignment{
			TaskID:    task.ID,
			StudentID: student.ID,
			Status:    models.AssignmentStatusPending,
		}
		err := db.DB.Where("task_id = ? AND student_id = ?", task.ID, student.ID).
			FirstOrCreate(&assignment).Error
		if err != nil {
			log.Printf("Failed to create assignment for %s: %v", student.Username, err)
			continue
		}
		assigned++
	}

	fmt.Println("Seed data created successfully")
	fmt.Printf("Teacher: %s (password: password123)\n", teacher.Username)
	fmt.Printf("Students: %d\n", len(students))
	fmt.Printf("Task %q assigned to %d students\n", task.Title, assigned)
}
