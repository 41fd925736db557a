package services

import (
	"fmt"
	"police_case_app_go/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCaseNumber(t *testing.T) {
	db := setupTestDB(t)
	center := &models.Center{Name: "Lakeside Station", Code: "LAK", IsActive: true}
	require.NoError(t, db.Create(center).Error)

	year := time.Now().Year()

	// 1. First case of the year
	number, err := GenerateCaseNumber(db, center, year)
	assert.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("LAK-%d-00001", year), number)

	obNumber, err := GenerateOBNumber(db, center, year)
	assert.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("OB/LAK/%d/00001", year), obNumber)

	// 2. Create the first case and test increment
	require.NoError(t, db.Create(&models.Case{
		CenterID:   center.ID,
		CaseNumber: number,
		OBNumber:   obNumber,
		Title:      "Case 1",
		CreatedBy:  "creator",
	}).Error)

	number2, err := GenerateCaseNumber(db, center, year)
	assert.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("LAK-%d-00002", year), number2)

	obNumber2, err := GenerateOBNumber(db, center, year)
	assert.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("OB/LAK/%d/00002", year), obNumber2)

	// 3. A new year restarts the sequence
	number3, err := GenerateCaseNumber(db, center, year+1)
	assert.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("LAK-%d-00001", year+1), number3)
}

func TestEnsureUniqueNumbers(t *testing.T) {
	db := setupTestDB(t)
	center := &models.Center{Name: "Unique Station", Code: "UNI", IsActive: true}
	require.NoError(t, db.Create(center).Error)
	year := time.Now().Year()

	caseNumber, obNumber, err := EnsureUniqueNumbers(db, center, year)
	assert.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("UNI-%d-00001", year), caseNumber)
	assert.Equal(t, fmt.Sprintf("OB/UNI/%d/00001", year), obNumber)

	// Out of order sequences still move forward
	require.NoError(t, db.Create(&models.Case{
		CenterID:   center.ID,
		CaseNumber: fmt.Sprintf("UNI-%d-00007", year),
		OBNumber:   fmt.Sprintf("OB/UNI/%d/00003", year),
		Title:      "Imported",
		CreatedBy:  "creator",
	}).Error)

	caseNumber, obNumber, err = EnsureUniqueNumbers(db, center, year)
	assert.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("UNI-%d-00008", year), caseNumber)
	assert.Equal(t, fmt.Sprintf("OB/UNI/%d/00004", year), obNumber)
}
