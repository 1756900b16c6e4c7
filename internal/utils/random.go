package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var roles = []domain.Role{
	domain.RoleOrganizer,
	domain.RoleAdmin,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

// GenerateUniqueChineseNames 生成 n 个互不相同的姓名，名字不够用时追加编号
func GenerateUniqueChineseNames(n int) []string {
	names := make([]string, 0, n)
	seen := make(map[string]bool, n)

	for len(names) < n {
		name := GenerateRandomChineseName()
		if seen[name] {
			name += fmt.Sprintf("%d", len(names))
			if seen[name] {
				continue
			}
		}
		seen[name] = true
		names = append(names, name)
	}

	return names
}

// GenerateRandomPreferenceTable 随机生成一个偏好表
// 每人每列有一定概率留空，且不会填写自己
func GenerateRandomPreferenceTable(memberCount int, columnCount int) *domain.PreferenceTable {
	table := &domain.PreferenceTable{
		Name:        "偏好表" + GenerateRandomID(3, 3),
		Description: "偏好表描述" + GenerateRandomID(20, 10),
		Members:     make([]domain.PreferenceTableMember, memberCount),
	}

	names := GenerateUniqueChineseNames(memberCount)
	for i, name := range names {
		preferences := make([]string, columnCount)
		for j := range preferences {
			if memberCount < 2 || rand.Intn(4) == 0 {
				continue
			}
			other := rand.Intn(memberCount - 1)
			if other >= i {
				other++
			}
			preferences[j] = names[other]
		}

		table.Members[i] = domain.PreferenceTableMember{
			Name:        name,
			Preferences: preferences,
		}
	}

	return table
}
